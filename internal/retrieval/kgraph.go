package retrieval

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/mohammad-safakhou/ragchat/models"
)

// KnowledgeGraph layers light entity annotation over semantic
// retrieval. The graph is a flat entity set mined from the corpus; it
// changes what results say about themselves, not which results return.
type KnowledgeGraph struct {
	Semantic SemanticSearcher
	Corpus   Corpus

	mu       sync.Mutex
	entities map[string]bool
}

func (g *KnowledgeGraph) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	results, err := g.Semantic.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	entities := g.entitySet(ctx)
	if len(entities) == 0 {
		return results, nil
	}

	var hits []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if entities[word] {
			hits = append(hits, word)
		}
	}
	reasoning := fmt.Sprintf("Found %d relevant entities in knowledge graph", len(hits))
	for i := range results {
		results[i].KGEntities = hits
		results[i].Reasoning = reasoning
		results[i].Type = "knowledge_graph_enhanced"
	}
	return results, nil
}

// entitySet builds the entity set lazily from the corpus: every
// alphabetic token longer than three characters.
func (g *KnowledgeGraph) entitySet(ctx context.Context) map[string]bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.entities != nil {
		return g.entities
	}
	g.entities = make(map[string]bool)
	if g.Corpus == nil {
		return g.entities
	}
	for _, text := range g.Corpus.AllText(ctx) {
		for _, word := range strings.Fields(strings.ToLower(text)) {
			if len(word) > 3 && isAlpha(word) {
				g.entities[word] = true
			}
		}
	}
	return g.entities
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
