package retrieval

import (
	"context"
	"log"

	"github.com/mohammad-safakhou/ragchat/internal/websearch"
	"github.com/mohammad-safakhou/ragchat/models"
)

// SemanticSearcher is the vector-index slice the strategies need.
// Satisfied by *index.Index.
type SemanticSearcher interface {
	Search(ctx context.Context, query string, k int) ([]models.SearchResult, error)
}

// Corpus exposes the full document text, used to build the entity set
// for knowledge-graph retrieval. Satisfied by docstore.Store.
type Corpus interface {
	AllText(ctx context.Context) []string
}

// Strategy retrieves context chunks for a query. Implementations never
// fail a chat turn: on error the caller degrades to no context.
type Strategy interface {
	Search(ctx context.Context, query string, k int) ([]models.SearchResult, error)
}

// New builds the strategy for a variant. Unknown variants and a hybrid
// request without a web searcher fall back to basic retrieval; variant
// selection must never break chat.
func New(variant models.RAGVariant, semantic SemanticSearcher, searcher websearch.Searcher, corpus Corpus) Strategy {
	logger := log.New(log.Writer(), "[RETRIEVAL] ", log.LstdFlags)
	switch variant {
	case models.RAGKnowledgeGraph:
		return &KnowledgeGraph{Semantic: semantic, Corpus: corpus}
	case models.RAGHybrid:
		if searcher == nil {
			logger.Printf("no web searcher for hybrid retrieval, falling back to basic")
			return &Basic{Semantic: semantic}
		}
		return &Hybrid{Semantic: semantic, Searcher: searcher}
	case models.RAGBasic:
		return &Basic{Semantic: semantic}
	default:
		logger.Printf("unknown retrieval variant %q, falling back to basic", variant)
		return &Basic{Semantic: semantic}
	}
}
