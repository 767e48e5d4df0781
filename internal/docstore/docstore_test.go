package docstore

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(1 << 20)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestUploadAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	info, err := store.Upload(ctx, []byte("quarterly revenue grew by ten percent"), "report.txt")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if info.ID == "" || info.Filename != "report.txt" || info.Type != "txt" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.ChunkCount != 1 {
		t.Fatalf("short text should produce one chunk, got %d", info.ChunkCount)
	}

	doc, ok := store.Get(ctx, info.ID)
	if !ok {
		t.Fatalf("stored document not found")
	}
	if doc.RawText != "quarterly revenue grew by ten percent" {
		t.Fatalf("unexpected raw text: %q", doc.RawText)
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	store, err := NewMemoryStore(16)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	_, err = store.Upload(context.Background(), []byte(strings.Repeat("a", 17)), "big.txt")
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Upload(context.Background(), []byte{0x50, 0x4b}, "archive.zip")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestContentSkipsUnknownIDsInRequestOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, _ := store.Upload(ctx, []byte("first document"), "a.txt")
	second, _ := store.Upload(ctx, []byte("second document"), "b.txt")

	got := store.Content(ctx, []string{second.ID, "no-such-id", first.ID})
	if len(got) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(got))
	}
	if got[0] != "second document" || got[1] != "first document" {
		t.Fatalf("blocks out of request order: %v", got)
	}
}

func TestDeleteReturnsFalseForUnknownID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	info, _ := store.Upload(ctx, []byte("to be deleted"), "a.txt")
	if !store.Delete(ctx, info.ID) {
		t.Fatalf("delete of existing document should succeed")
	}
	if store.Delete(ctx, info.ID) {
		t.Fatalf("second delete should report false")
	}
	if store.Delete(ctx, "never-existed") {
		t.Fatalf("unknown id should report false")
	}
	if _, ok := store.Get(ctx, info.ID); ok {
		t.Fatalf("deleted document still retrievable")
	}
}

func TestListSortedByUploadTime(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, _ := store.Upload(ctx, []byte("first"), "a.txt")
	b, _ := store.Upload(ctx, []byte("second"), "b.txt")

	list := store.List(ctx)
	if len(list) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(list))
	}
	if list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("list not ordered by upload time: %+v", list)
	}
}

func TestKeywordSearchFindsDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	target, _ := store.Upload(ctx, []byte("the treaty covers maritime borders"), "treaty.txt")
	_, _ = store.Upload(ctx, []byte("recipe for sourdough bread"), "recipe.txt")

	results, err := store.Search(ctx, "maritime", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != target.ID {
		t.Fatalf("unexpected search results: %+v", results)
	}
}

func TestChunksOverlap(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks := Chunks(text, 1000, 200)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[0]) != 1000 {
		t.Fatalf("unexpected first chunk size: %d", len(chunks[0]))
	}
	// Each window starts 800 into the previous one.
	if chunks[1] != text[800:1800] {
		t.Fatalf("second chunk does not overlap first by 200")
	}
}

func TestSummarizeTruncates(t *testing.T) {
	short := Summarize("a  few   words")
	if short != "a few words" {
		t.Fatalf("whitespace not collapsed: %q", short)
	}
	long := Summarize(strings.Repeat("word ", 100))
	if len(long) != 240+3 || !strings.HasSuffix(long, "...") {
		t.Fatalf("long summary not truncated: %d chars", len(long))
	}
}

func TestExtractHTML(t *testing.T) {
	html := `<html><head><title>t</title></head><body><article><p>Readable body text for extraction that is long enough to keep.</p></article></body></html>`
	text, docType, err := Extract([]byte(html), "page.html")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if docType != "html" {
		t.Fatalf("unexpected type: %q", docType)
	}
	if !strings.Contains(text, "Readable body text") {
		t.Fatalf("unexpected text: %q", text)
	}
}
