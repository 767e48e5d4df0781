package docstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/blevesearch/bleve"
	"github.com/google/uuid"

	"github.com/mohammad-safakhou/ragchat/models"
)

// MemoryStore keeps documents in a map with a bleve mem-only index for
// keyword search over the extracted text.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[string]models.Document
	bleve    bleve.Index
	maxBytes int64
}

type indexedDoc struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

func NewMemoryStore(maxBytes int64) (*MemoryStore, error) {
	idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, err
	}
	return &MemoryStore{
		docs:     make(map[string]models.Document),
		bleve:    idx,
		maxBytes: maxBytes,
	}, nil
}

func (s *MemoryStore) Upload(ctx context.Context, data []byte, filename string) (models.DocumentInfo, error) {
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return models.DocumentInfo{}, ErrTooLarge
	}
	text, docType, err := Extract(data, filename)
	if err != nil {
		return models.DocumentInfo{}, err
	}

	doc := models.Document{
		ID:         uuid.NewString(),
		Filename:   filename,
		Type:       docType,
		RawText:    text,
		Chunks:     Chunks(text, DefaultChunkSize, DefaultChunkOverlap),
		Summary:    Summarize(text),
		UploadTime: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.bleve.Index(doc.ID, indexedDoc{Filename: doc.Filename, Text: doc.RawText}); err != nil {
		return models.DocumentInfo{}, err
	}
	s.docs[doc.ID] = doc
	return info(doc), nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	return doc, ok
}

// Content returns text blocks for the given IDs in request order.
// Unknown IDs are silently skipped.
func (s *MemoryStore) Content(ctx context.Context, ids []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, id := range ids {
		if doc, ok := s.docs[id]; ok {
			out = append(out, doc.RawText)
		}
	}
	return out
}

func (s *MemoryStore) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	_ = s.bleve.Delete(id)
	return true
}

func (s *MemoryStore) List(ctx context.Context) []models.DocumentInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DocumentInfo, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, info(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadTime.Before(out[j].UploadTime) })
	return out
}

// Search runs a BM25 keyword query over extracted text.
func (s *MemoryStore) Search(ctx context.Context, q string, k int) ([]models.DocumentInfo, error) {
	query := bleve.NewQueryStringQuery(q)
	req := bleve.NewSearchRequestOptions(query, k, 0, false)
	res, err := s.bleve.Search(req)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.DocumentInfo
	for _, hit := range res.Hits {
		if doc, ok := s.docs[hit.ID]; ok {
			out = append(out, info(doc))
		}
		if len(out) >= k {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) AllText(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, doc.RawText)
	}
	return out
}
