package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohammad-safakhou/ragchat/models"
)

// stubEmbedder maps known texts to fixed vectors.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s stubEmbedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, ok := s.vectors[t]
		if !ok {
			v = []float32{0, 0, 1}
		}
		out = append(out, v)
	}
	return out, nil
}

func testEmbedder() stubEmbedder {
	return stubEmbedder{vectors: map[string][]float32{
		"chunk about cats": {1, 0, 0},
		"chunk about dogs": {0, 1, 0},
		"cats":             {0.9, 0.1, 0},
	}}
}

func meta(doc string, i int) models.ChunkMeta {
	return models.ChunkMeta{DocumentID: doc, Filename: doc + ".txt", ChunkIndex: i}
}

func TestSearchEmptyIndexReturnsNothing(t *testing.T) {
	ix := New(testEmbedder(), filepath.Join(t.TempDir(), "ix.gob"))
	results, err := ix.Search(context.Background(), "cats", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestSearchRanksByCosine(t *testing.T) {
	ix := New(testEmbedder(), filepath.Join(t.TempDir(), "ix.gob"))
	ctx := context.Background()

	chunks := []string{"chunk about cats", "chunk about dogs"}
	metas := []models.ChunkMeta{meta("d1", 0), meta("d1", 1)}
	if err := ix.Add(ctx, chunks, metas); err != nil {
		t.Fatalf("add: %v", err)
	}

	results, err := ix.Search(ctx, "cats", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Content != "chunk about cats" {
		t.Fatalf("expected cat chunk first, got %q", results[0].Content)
	}
	if results[0].Relevance != "high" {
		t.Fatalf("expected high relevance, got %q (score %f)", results[0].Relevance, results[0].Score)
	}
	if results[0].Type != "semantic" || results[0].Source != "document" {
		t.Fatalf("unexpected type/source: %+v", results[0])
	}
	if results[1].Content != "chunk about dogs" {
		t.Fatalf("expected dog chunk second, got %q", results[1].Content)
	}
}

func TestAddDimensionMismatchFailsWholeBatch(t *testing.T) {
	emb := stubEmbedder{vectors: map[string][]float32{
		"a": {1, 0, 0},
		"b": {1, 0},
	}}
	ix := New(emb, filepath.Join(t.TempDir(), "ix.gob"))
	ctx := context.Background()

	err := ix.Add(ctx, []string{"a", "b"}, []models.ChunkMeta{meta("d1", 0), meta("d1", 1)})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
	if ix.Len() != 0 {
		t.Fatalf("no partial append expected, got %d vectors", ix.Len())
	}
}

func TestRemoveDocumentPrunesChunks(t *testing.T) {
	ix := New(testEmbedder(), filepath.Join(t.TempDir(), "ix.gob"))
	ctx := context.Background()

	_ = ix.Add(ctx, []string{"chunk about cats"}, []models.ChunkMeta{meta("d1", 0)})
	_ = ix.Add(ctx, []string{"chunk about dogs"}, []models.ChunkMeta{meta("d2", 0)})

	if removed := ix.RemoveDocument("d1"); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	results, err := ix.Search(ctx, "cats", 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for _, r := range results {
		if r.Metadata.DocumentID == "d1" {
			t.Fatalf("stale chunk survived delete: %+v", r)
		}
	}
	if removed := ix.RemoveDocument("d1"); removed != 0 {
		t.Fatalf("second remove should be a no-op, got %d", removed)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ix.gob")
	ix := New(testEmbedder(), path)
	ctx := context.Background()

	_ = ix.Add(ctx, []string{"chunk about cats", "chunk about dogs"}, []models.ChunkMeta{meta("d1", 0), meta("d1", 1)})
	if err := ix.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored := New(testEmbedder(), path)
	if err := restored.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("expected 2 vectors after load, got %d", restored.Len())
	}
	results, err := restored.Search(ctx, "cats", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Content != "chunk about cats" {
		t.Fatalf("unexpected results after reload: %+v", results)
	}
}

func TestSaveConcurrentWithRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ix.gob")
	ix := New(testEmbedder(), path)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		doc := "d1"
		if i%2 == 0 {
			doc = "d2"
		}
		_ = ix.Add(ctx, []string{"chunk about cats"}, []models.ChunkMeta{meta(doc, i)})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			if err := ix.Save(); err != nil {
				t.Errorf("save: %v", err)
				return
			}
		}
	}()
	ix.RemoveDocument("d1")
	<-done

	restored := New(testEmbedder(), path)
	if err := restored.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	restored.mu.RLock()
	defer restored.mu.RUnlock()
	if len(restored.vectors) != len(restored.meta) || len(restored.vectors) != len(restored.contents) {
		t.Fatalf("snapshot lengths diverged: %d vectors, %d meta, %d contents",
			len(restored.vectors), len(restored.meta), len(restored.contents))
	}
}

func TestLoadMissingOrCorruptDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()

	missing := New(testEmbedder(), filepath.Join(dir, "missing.gob"))
	if err := missing.Load(); err != nil {
		t.Fatalf("missing snapshot should not error: %v", err)
	}
	if missing.Len() != 0 {
		t.Fatalf("expected empty index")
	}

	corrupt := filepath.Join(dir, "corrupt.gob")
	if err := os.WriteFile(corrupt, []byte("not a gob"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	ix := New(testEmbedder(), corrupt)
	if err := ix.Load(); err != nil {
		t.Fatalf("corrupt snapshot should not error: %v", err)
	}
	if ix.Len() != 0 {
		t.Fatalf("expected empty index after corrupt load")
	}
}
