package docstore

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
)

// Extract pulls plain text out of an uploaded payload according to its
// file extension. Returns the text and the normalized document type.
func Extract(data []byte, filename string) (string, string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	switch ext {
	case "txt", "md", "markdown", "csv", "log", "json":
		if !utf8.Valid(data) {
			return "", "", fmt.Errorf("%w: %s is not valid utf-8 text", ErrUnsupportedType, filename)
		}
		return strings.TrimSpace(string(data)), ext, nil
	case "html", "htm":
		article, err := readability.FromReader(bytes.NewReader(data), &url.URL{Scheme: "file", Path: filename})
		if err != nil {
			return "", "", fmt.Errorf("extract html: %w", err)
		}
		return strings.TrimSpace(article.TextContent), "html", nil
	default:
		return "", "", fmt.Errorf("%w: .%s", ErrUnsupportedType, ext)
	}
}

const summaryChars = 240

// Summarize produces the short content summary stored with a document.
func Summarize(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if len(collapsed) <= summaryChars {
		return collapsed
	}
	return collapsed[:summaryChars] + "..."
}

// Chunks splits text into approx-sized overlapping windows, the unit of
// embedding and indexing.
func Chunks(text string, approx, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= approx {
		return []string{text}
	}
	var chunks []string
	for start := 0; start < len(text); {
		end := start + approx
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
		start = end - overlap
		if start < 0 {
			start = 0
		}
	}
	return chunks
}

const (
	// DefaultChunkSize and DefaultChunkOverlap match the ingestion
	// window used across the service.
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)
