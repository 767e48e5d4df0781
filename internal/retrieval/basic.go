package retrieval

import (
	"context"

	"github.com/mohammad-safakhou/ragchat/models"
)

// Basic is pure semantic retrieval over the vector index.
type Basic struct {
	Semantic SemanticSearcher
}

func (b *Basic) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	return b.Semantic.Search(ctx, query, k)
}
