package websearch

import (
	"context"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	readability "github.com/go-shiori/go-readability"
)

const (
	defaultFetchTimeout = 15 * time.Second
	snippetMaxChars     = 500
)

// Enricher replaces thin snippets with text extracted from the hit's
// page. Fetch failures leave the original snippet in place.
type Enricher struct {
	Inner           Searcher
	MinSnippetChars int
	Timeout         time.Duration
}

func (e *Enricher) Search(ctx context.Context, q string, k int) ([]Result, error) {
	results, err := e.Inner.Search(ctx, q, k)
	if err != nil {
		return nil, err
	}
	for i := range results {
		if len(results[i].Snippet) >= e.MinSnippetChars {
			continue
		}
		text, err := fetchArticleText(ctx, results[i].URL, e.Timeout)
		if err != nil {
			log.Printf("[WEBSEARCH] fetch %s: %v", results[i].URL, err)
			continue
		}
		if text != "" {
			results[i].Snippet = text
		}
	}
	return results, nil
}

func fetchArticleText(ctx context.Context, pageURL string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	html, err := fetchHTML(ctx, pageURL)
	if err != nil {
		return "", err
	}
	article, err := readability.FromReader(strings.NewReader(html), mustParseURL(pageURL))
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(article.TextContent)
	if len(text) > snippetMaxChars {
		text = text[:snippetMaxChars]
	}
	return text, nil
}

func fetchHTML(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent("RagChat/1.0 (+contact@example.com)"),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
