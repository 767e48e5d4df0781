package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/models"
)

var (
	// ErrUnsupportedType is returned when no extractor handles the file type.
	ErrUnsupportedType = errors.New("unsupported document type")
	// ErrTooLarge is returned when an upload exceeds the configured ceiling.
	ErrTooLarge = errors.New("document exceeds size limit")
)

// Store ingests uploaded files and supplies their content by ID.
// Unknown IDs are skipped, not errors: callers get a partial result.
type Store interface {
	Upload(ctx context.Context, data []byte, filename string) (models.DocumentInfo, error)
	Get(ctx context.Context, id string) (models.Document, bool)
	Content(ctx context.Context, ids []string) []string
	Delete(ctx context.Context, id string) bool
	List(ctx context.Context) []models.DocumentInfo
	Search(ctx context.Context, q string, k int) ([]models.DocumentInfo, error)
	AllText(ctx context.Context) []string
}

type Driver string

const (
	MemoryDriver   Driver = "memory"
	PostgresDriver Driver = "postgres"
)

// NewStore builds the document store backend selected by configuration.
func NewStore(cfg config.StorageConfig) (Store, error) {
	switch Driver(cfg.Driver) {
	case MemoryDriver, "":
		return NewMemoryStore(cfg.MaxUploadBytes)
	case PostgresDriver:
		return NewPostgresStore(cfg.Postgres.DSN(), cfg.MaxUploadBytes)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

func info(d models.Document) models.DocumentInfo {
	return models.DocumentInfo{
		ID:         d.ID,
		Filename:   d.Filename,
		Type:       d.Type,
		Summary:    d.Summary,
		ChunkCount: len(d.Chunks),
		UploadTime: d.UploadTime,
	}
}
