package models

import (
	"time"
)

// Document is an uploaded file after text extraction. Immutable once
// stored; removed only by explicit delete.
type Document struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Type       string    `json:"type"`
	RawText    string    `json:"raw_text"`
	Chunks     []string  `json:"chunks"`
	Summary    string    `json:"summary"`
	UploadTime time.Time `json:"upload_time"`
}

// DocumentInfo is the listing view of a Document (no raw text).
type DocumentInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Type       string    `json:"type"`
	Summary    string    `json:"summary"`
	ChunkCount int       `json:"chunk_count"`
	UploadTime time.Time `json:"upload_time"`
}

// ChunkMeta describes one indexed chunk and ties it back to its document.
type ChunkMeta struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
}

// SearchResult is a single retrieval hit. Semantic hits carry score,
// relevance and chunk metadata; web hits carry title/url/snippet.
// Hybrid ranking attaches search_type, rank and final_score.
type SearchResult struct {
	Content    string    `json:"content"`
	Score      float64   `json:"score"`
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	Relevance  string    `json:"relevance,omitempty"`
	Metadata   ChunkMeta `json:"metadata,omitempty"`
	Title      string    `json:"title,omitempty"`
	URL        string    `json:"url,omitempty"`
	Snippet    string    `json:"snippet,omitempty"`
	KGEntities []string  `json:"kg_entities,omitempty"`
	Reasoning  string    `json:"reasoning,omitempty"`
	SearchType string    `json:"search_type,omitempty"`
	Weight     float64   `json:"weight,omitempty"`
	Rank       int       `json:"rank,omitempty"`
	FinalScore float64   `json:"final_score,omitempty"`
}

// Message is one conversation turn. MessageID and ContextHash are
// derived deterministically from the content for tracking.
type Message struct {
	Role            string    `json:"role"`
	Content         string    `json:"content"`
	Timestamp       time.Time `json:"timestamp"`
	DocumentContext []string  `json:"document_context,omitempty"`
	MessageID       string    `json:"message_id"`
	ContextHash     string    `json:"context_hash"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// RAGVariant selects the retrieval strategy. Unknown values fall back
// to basic, never an error.
type RAGVariant string

const (
	RAGBasic          RAGVariant = "basic"
	RAGKnowledgeGraph RAGVariant = "knowledge_graph"
	RAGHybrid         RAGVariant = "hybrid"
)

// RuntimeConfig is the process-wide chat configuration. It is replaced
// wholesale by a config-update call, never merged field by field.
type RuntimeConfig struct {
	SelectedLLM          string     `json:"selected_llm"`
	SelectedRAGVariant   RAGVariant `json:"selected_rag_variant"`
	SelectedDocuments    []string   `json:"selected_documents"`
	EnableInternetSearch bool       `json:"enable_internet_search"`
}

// ValidationReport is the guardrail verdict for one request. Ephemeral,
// never persisted.
type ValidationReport struct {
	Safe            bool     `json:"safe"`
	ToxicityScore   float64  `json:"toxicity_score"`
	IsNSFW          bool     `json:"is_nsfw"`
	NSFWKeywords    []string `json:"nsfw_keywords,omitempty"`
	IsRelevant      bool     `json:"is_relevant"`
	DocumentTopics  []string `json:"document_topics,omitempty"`
	QuestionTopics  []string `json:"question_topics,omitempty"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
}

type ChatRequest struct {
	SessionID   string   `json:"session_id"`
	Message     string   `json:"message"`
	Images      []string `json:"images,omitempty"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

type ChatResponse struct {
	Response        string         `json:"response"`
	Sources         []SearchResult `json:"sources"`
	SessionID       string         `json:"session_id"`
	TokensUsed      int64          `json:"tokens_used"`
	IsRelevant      bool           `json:"is_relevant"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
}

// Completion is the result of a generation call.
type Completion struct {
	Content    string `json:"content"`
	TokensUsed int64  `json:"tokens_used"`
}

type UploadResponse struct {
	Success    bool   `json:"success"`
	DocumentID string `json:"document_id,omitempty"`
	Filename   string `json:"filename"`
	Type       string `json:"document_type,omitempty"`
	Error      string `json:"error,omitempty"`
}
