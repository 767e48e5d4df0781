package docstore

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mohammad-safakhou/ragchat/models"
)

// PostgresStore persists documents in a documents table. Schema lives
// under migrations/ and is applied with the migrate command.
type PostgresStore struct {
	db       *sql.DB
	maxBytes int64
	logger   *log.Logger
}

func NewPostgresStore(dsn string, maxBytes int64) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &PostgresStore{
		db:       db,
		maxBytes: maxBytes,
		logger:   log.New(log.Writer(), "[DOCSTORE] ", log.LstdFlags),
	}, nil
}

func (s *PostgresStore) Upload(ctx context.Context, data []byte, filename string) (models.DocumentInfo, error) {
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
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, filename, doc_type, raw_text, summary, chunk_count, uploaded_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		doc.ID, doc.Filename, doc.Type, doc.RawText, doc.Summary, len(doc.Chunks), doc.UploadTime)
	if err != nil {
		return models.DocumentInfo{}, err
	}
	return info(doc), nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (models.Document, bool) {
	var doc models.Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, doc_type, raw_text, summary, uploaded_at FROM documents WHERE id = $1`, id).
		Scan(&doc.ID, &doc.Filename, &doc.Type, &doc.RawText, &doc.Summary, &doc.UploadTime)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Printf("get %s: %v", id, err)
		}
		return models.Document{}, false
	}
	doc.Chunks = Chunks(doc.RawText, DefaultChunkSize, DefaultChunkOverlap)
	return doc, true
}

func (s *PostgresStore) Content(ctx context.Context, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT raw_text FROM documents WHERE id = ANY($1) ORDER BY uploaded_at`, pq.Array(ids))
	if err != nil {
		s.logger.Printf("content: %v", err)
		return nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			continue
		}
		out = append(out, text)
	}
	return out
}

func (s *PostgresStore) Delete(ctx context.Context, id string) bool {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		s.logger.Printf("delete %s: %v", id, err)
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

func (s *PostgresStore) List(ctx context.Context) []models.DocumentInfo {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, doc_type, summary, chunk_count, uploaded_at FROM documents ORDER BY uploaded_at`)
	if err != nil {
		s.logger.Printf("list: %v", err)
		return nil
	}
	defer rows.Close()
	return scanInfos(rows)
}

// Search degrades to a case-insensitive substring match; BM25 ranking
// is only available on the in-memory backend.
func (s *PostgresStore) Search(ctx context.Context, q string, k int) ([]models.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, doc_type, summary, chunk_count, uploaded_at FROM documents
         WHERE raw_text ILIKE '%' || $1 || '%' OR filename ILIKE '%' || $1 || '%'
         ORDER BY uploaded_at DESC LIMIT $2`, q, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInfos(rows), nil
}

func (s *PostgresStore) AllText(ctx context.Context) []string {
	rows, err := s.db.QueryContext(ctx, `SELECT raw_text FROM documents`)
	if err != nil {
		s.logger.Printf("all text: %v", err)
		return nil
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			continue
		}
		out = append(out, text)
	}
	return out
}

func scanInfos(rows *sql.Rows) []models.DocumentInfo {
	var out []models.DocumentInfo
	for rows.Next() {
		var d models.DocumentInfo
		if err := rows.Scan(&d.ID, &d.Filename, &d.Type, &d.Summary, &d.ChunkCount, &d.UploadTime); err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}
