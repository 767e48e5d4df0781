package index

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mohammad-safakhou/ragchat/models"
)

// ErrDimensionMismatch is returned when an embedding does not match the
// index's fixed dimension.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Embedder turns text into fixed-length vectors. Satisfied by
// provider.Provider.
type Embedder interface {
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Index is a flat nearest-neighbor index over chunk embeddings.
// Invariant: vectors, meta and contents stay the same length.
type Index struct {
	mu       sync.RWMutex
	dim      int
	vectors  [][]float32
	meta     []models.ChunkMeta
	contents []string
	path     string
	embedder Embedder
	logger   *log.Logger
}

func New(embedder Embedder, path string) *Index {
	return &Index{
		embedder: embedder,
		path:     path,
		logger:   log.New(log.Writer(), "[INDEX] ", log.LstdFlags),
	}
}

// Len reports the number of indexed chunks.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.vectors)
}

// Add embeds the chunks and appends vector+metadata pairs. The first
// vector fixes the index dimension; a mismatch fails the whole batch
// with no partial append.
func (ix *Index) Add(ctx context.Context, chunks []string, metas []models.ChunkMeta) error {
	if len(chunks) == 0 {
		return nil
	}
	if len(chunks) != len(metas) {
		return fmt.Errorf("chunks/metadata length mismatch: %d != %d", len(chunks), len(metas))
	}
	vecs, err := ix.embedder.CreateEmbedding(ctx, chunks)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vecs) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vecs), len(chunks))
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	dim := ix.dim
	for _, v := range vecs {
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, len(v), dim)
		}
	}
	ix.dim = dim
	ix.vectors = append(ix.vectors, vecs...)
	ix.meta = append(ix.meta, metas...)
	ix.contents = append(ix.contents, chunks...)
	return nil
}

// Search embeds the query and returns the top k chunks by cosine
// similarity. It scores 2k candidates internally to leave room for
// re-ranking downstream. An empty index yields an empty result, never
// an error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]models.SearchResult, error) {
	if ix.Len() == 0 || k <= 0 {
		return nil, nil
	}
	vecs, err := ix.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	q := vecs[0]

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	type scored struct {
		idx   int
		score float64
	}
	scoreds := make([]scored, len(ix.vectors))
	for i, v := range ix.vectors {
		scoreds[i] = scored{idx: i, score: cosine(q, v)}
	}
	sort.Slice(scoreds, func(i, j int) bool { return scoreds[i].score > scoreds[j].score })

	candidates := 2 * k
	if candidates > len(scoreds) {
		candidates = len(scoreds)
	}
	scoreds = scoreds[:candidates]

	n := k
	if n > len(scoreds) {
		n = len(scoreds)
	}
	out := make([]models.SearchResult, 0, n)
	for _, sc := range scoreds[:n] {
		out = append(out, models.SearchResult{
			Content:   ix.contents[sc.idx],
			Score:     sc.score,
			Type:      "semantic",
			Source:    "document",
			Relevance: relevanceLabel(sc.score),
			Metadata:  ix.meta[sc.idx],
		})
	}
	return out, nil
}

// RemoveDocument drops every chunk belonging to the document, keeping
// the index free of stale entries after a delete.
func (ix *Index) RemoveDocument(docID string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	var removed int
	vectors := ix.vectors[:0]
	meta := ix.meta[:0]
	contents := ix.contents[:0]
	for i := range ix.meta {
		if ix.meta[i].DocumentID == docID {
			removed++
			continue
		}
		vectors = append(vectors, ix.vectors[i])
		meta = append(meta, ix.meta[i])
		contents = append(contents, ix.contents[i])
	}
	ix.vectors = vectors
	ix.meta = meta
	ix.contents = contents
	if len(ix.vectors) == 0 {
		ix.dim = 0
	}
	return removed
}

type snapshot struct {
	Dim      int
	Vectors  [][]float32
	Meta     []models.ChunkMeta
	Contents []string
}

// Save persists vectors and metadata as one unit: a temp file is
// written and renamed so readers never observe a half-written pair.
// The slices are copied under the lock; RemoveDocument compacts the
// live arrays in place and must not race with encoding.
func (ix *Index) Save() error {
	ix.mu.RLock()
	snap := snapshot{
		Dim:      ix.dim,
		Vectors:  append([][]float32(nil), ix.vectors...),
		Meta:     append([]models.ChunkMeta(nil), ix.meta...),
		Contents: append([]string(nil), ix.contents...),
	}
	ix.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		return err
	}
	tmp := ix.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, ix.path)
}

// Load restores a saved snapshot. Missing or corrupt files degrade to
// an empty index: the service must stay usable with zero documents.
func (ix *Index) Load() error {
	f, err := os.Open(ix.path)
	if err != nil {
		if !os.IsNotExist(err) {
			ix.logger.Printf("load %s: %v (starting empty)", ix.path, err)
		}
		return nil
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		ix.logger.Printf("decode %s: %v (starting empty)", ix.path, err)
		return nil
	}
	if len(snap.Vectors) != len(snap.Meta) || len(snap.Vectors) != len(snap.Contents) {
		ix.logger.Printf("snapshot %s is inconsistent (starting empty)", ix.path)
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.dim = snap.Dim
	ix.vectors = snap.Vectors
	ix.meta = snap.Meta
	ix.contents = snap.Contents
	ix.logger.Printf("loaded %d vectors from %s", len(ix.vectors), ix.path)
	return nil
}

func relevanceLabel(score float64) string {
	switch {
	case score > 0.7:
		return "high"
	case score > 0.5:
		return "medium"
	default:
		return "low"
	}
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
