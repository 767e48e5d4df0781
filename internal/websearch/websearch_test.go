package websearch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mohammad-safakhou/ragchat/config"
)

type stubSearcher struct {
	results []Result
	err     error
	calls   int
}

func (s *stubSearcher) Search(ctx context.Context, q string, k int) ([]Result, error) {
	s.calls++
	return s.results, s.err
}

func TestNewSearcherProviders(t *testing.T) {
	s, err := NewSearcher(config.SearchConfig{Provider: "serper", APIKey: "k"})
	if err != nil {
		t.Fatalf("serper: %v", err)
	}
	if _, ok := s.(Serper); !ok {
		t.Fatalf("expected Serper, got %T", s)
	}

	s, err = NewSearcher(config.SearchConfig{Provider: "brave", APIKey: "k"})
	if err != nil {
		t.Fatalf("brave: %v", err)
	}
	if _, ok := s.(Brave); !ok {
		t.Fatalf("expected Brave, got %T", s)
	}

	if _, err := NewSearcher(config.SearchConfig{Provider: "duckduckgo"}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestNewSearcherWrapsEnricher(t *testing.T) {
	s, err := NewSearcher(config.SearchConfig{
		Provider:        "serper",
		APIKey:          "k",
		FetchPages:      true,
		MinSnippetChars: 80,
		FetchTimeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatalf("searcher: %v", err)
	}
	e, ok := s.(*Enricher)
	if !ok {
		t.Fatalf("expected Enricher, got %T", s)
	}
	if e.MinSnippetChars != 80 {
		t.Fatalf("unexpected threshold %d", e.MinSnippetChars)
	}
	if _, ok := e.Inner.(Serper); !ok {
		t.Fatalf("expected Serper inner, got %T", e.Inner)
	}
}

func TestEnricherSkipsLongSnippets(t *testing.T) {
	inner := &stubSearcher{results: []Result{
		{Title: "a", URL: "https://example.com/a", Snippet: "already long enough"},
	}}
	e := &Enricher{Inner: inner, MinSnippetChars: 5}

	results, err := e.Search(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner searcher called %d times", inner.calls)
	}
	if results[0].Snippet != "already long enough" {
		t.Fatalf("snippet must not change: %q", results[0].Snippet)
	}
}

func TestEnricherPropagatesSearchError(t *testing.T) {
	inner := &stubSearcher{err: errors.New("quota exceeded")}
	e := &Enricher{Inner: inner, MinSnippetChars: 5}

	if _, err := e.Search(context.Background(), "q", 3); err == nil {
		t.Fatalf("expected search error to surface")
	}
}
