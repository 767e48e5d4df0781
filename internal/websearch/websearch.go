package websearch

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/ragchat/config"
)

// Result is one internet search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher runs an internet query and returns up to k hits.
type Searcher interface {
	Search(ctx context.Context, q string, k int) ([]Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

// NewSearcher builds the searcher named in config, optionally wrapped
// with headless page fetch to fill in thin snippets.
func NewSearcher(cfg config.SearchConfig) (Searcher, error) {
	var base Searcher
	switch Provider(cfg.Provider) {
	case SerperProvider:
		base = Serper{APIKey: cfg.APIKey}
	case BraveProvider:
		base = Brave{APIKey: cfg.APIKey}
	default:
		return nil, ErrUnsupportedProvider
	}
	if cfg.FetchPages {
		return &Enricher{
			Inner:           base,
			MinSnippetChars: cfg.MinSnippetChars,
			Timeout:         cfg.FetchTimeout,
		}, nil
	}
	return base, nil
}
