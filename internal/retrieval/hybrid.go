package retrieval

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/mohammad-safakhou/ragchat/internal/websearch"
	"github.com/mohammad-safakhou/ragchat/models"
)

const (
	semanticBoost    = 1.2
	internetWeight   = 0.8
	highRelevance    = 1.3
	mediumRelevance  = 1.1
	longSnippetBoost = 1.1
	longSnippetChars = 100
)

// Hybrid merges semantic retrieval with internet search and re-ranks
// the union. Either leg failing degrades to the other leg's results;
// both failing yields an empty set, never an error.
type Hybrid struct {
	Semantic SemanticSearcher
	Searcher websearch.Searcher
}

func (h *Hybrid) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	var (
		wg       sync.WaitGroup
		semantic []models.SearchResult
		internet []websearch.Result
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results, err := h.Semantic.Search(ctx, query, k)
		if err != nil {
			log.Printf("[RETRIEVAL] semantic search failed: %v", err)
			return
		}
		semantic = results
	}()
	go func() {
		defer wg.Done()
		results, err := h.Searcher.Search(ctx, query, k)
		if err != nil {
			log.Printf("[RETRIEVAL] internet search failed: %v", err)
			return
		}
		internet = results
	}()
	wg.Wait()

	combined := make([]models.SearchResult, 0, len(semantic)+len(internet))
	for _, r := range semantic {
		r.SearchType = "semantic"
		r.Weight = r.Score * semanticBoost
		combined = append(combined, r)
	}
	for _, r := range internet {
		combined = append(combined, models.SearchResult{
			Content:    r.Snippet,
			Type:       "web",
			Source:     "internet",
			Title:      r.Title,
			URL:        r.URL,
			Snippet:    r.Snippet,
			SearchType: "internet",
			Weight:     internetWeight,
		})
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return rankingScore(combined[i]) > rankingScore(combined[j])
	})
	if len(combined) > k {
		combined = combined[:k]
	}
	for i := range combined {
		combined[i].Rank = i + 1
		combined[i].FinalScore = rankingScore(combined[i])
	}
	return combined, nil
}

func rankingScore(r models.SearchResult) float64 {
	score := r.Weight
	switch r.Relevance {
	case "high":
		score *= highRelevance
	case "medium":
		score *= mediumRelevance
	}
	if r.SearchType == "semantic" {
		score *= semanticBoost
	}
	if r.SearchType == "internet" && len(r.Snippet) > longSnippetChars {
		score *= longSnippetBoost
	}
	return score
}
