package memory

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/models"
)

// DefaultMaxMessages bounds a session's queue when config leaves it unset.
const DefaultMaxMessages = 10

// Store is bounded per-session conversation memory with a derived
// topic summary. Eviction is strict FIFO: recency matters for context
// windows, access frequency does not.
type Store interface {
	Add(ctx context.Context, sessionID, role, content string, docContext []string) error
	History(ctx context.Context, sessionID string) []models.Message
	ContextString(ctx context.Context, sessionID string, maxMessages int) string
	Stats(ctx context.Context, sessionID string) Stats
	Clear(ctx context.Context, sessionID string)
	Sessions(ctx context.Context) []string
}

// Stats describes one session's memory state.
type Stats struct {
	MessageCount  int      `json:"message_count"`
	HasSummary    bool     `json:"has_summary"`
	Summary       string   `json:"summary,omitempty"`
	ContextHashes []string `json:"context_hashes,omitempty"`
}

type Driver string

const (
	InMemoryDriver Driver = "inmemory"
	RedisDriver    Driver = "redis"
)

// NewStore builds the memory backend selected by configuration.
func NewStore(memCfg config.MemoryConfig, redisCfg config.RedisConfig) Store {
	max := memCfg.MaxMessages
	if max <= 0 {
		max = DefaultMaxMessages
	}
	switch Driver(memCfg.Driver) {
	case InMemoryDriver, "":
		return NewInMemoryStore(max)
	case RedisDriver:
		return NewRedisStore(redisCfg.Addr(), redisCfg.Password, redisCfg.DB, max, memCfg.SessionTTL)
	default:
		panic(fmt.Sprintf("unsupported memory driver: %s", memCfg.Driver))
	}
}

// newMessage stamps a turn with its deterministic tracking IDs.
func newMessage(role, content string, docContext []string) models.Message {
	now := time.Now()
	return models.Message{
		Role:            role,
		Content:         content,
		Timestamp:       now,
		DocumentContext: docContext,
		MessageID:       messageID(role, content, now),
		ContextHash:     contextHash(content, docContext),
	}
}

func messageID(role, content string, ts time.Time) string {
	sum := sha1.Sum([]byte(content))
	secs := fmt.Sprintf("%d", ts.Unix())
	if len(secs) > 6 {
		secs = secs[len(secs)-6:]
	}
	return fmt.Sprintf("%s_%s_%s", role, secs, hex.EncodeToString(sum[:])[:8])
}

func contextHash(content string, docContext []string) string {
	sum := sha1.Sum([]byte(content + "|" + strings.Join(docContext, "|")))
	return hex.EncodeToString(sum[:])[:12]
}

// topic signals scanned out of recent messages
var topicSignals = []struct {
	topic    string
	keywords []string
}{
	{"questioning", []string{"question", "?"}},
	{"assistance", []string{"help", "assist"}},
	{"document_analysis", []string{"document", "file"}},
	{"search", []string{"search", "find"}},
}

// deriveSummary builds the one-line topic summary from the last five
// messages. Callers only invoke it once a session holds at least three.
func deriveSummary(messages []models.Message) string {
	recent := messages
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	seen := make(map[string]bool)
	var topics []string
	for _, msg := range recent {
		content := strings.ToLower(msg.Content)
		for _, sig := range topicSignals {
			if seen[sig.topic] {
				continue
			}
			for _, kw := range sig.keywords {
				if strings.Contains(content, kw) {
					seen[sig.topic] = true
					topics = append(topics, sig.topic)
					break
				}
			}
		}
	}
	if len(topics) == 0 {
		return "General conversation in progress"
	}
	return "Recent conversation topics: " + strings.Join(topics, ", ")
}

const docRefChars = 100

// formatContext renders the summary plus the most recent messages into
// the single string handed to generation. Nothing more structured
// crosses this boundary.
func formatContext(summary string, messages []models.Message, maxMessages int) string {
	var parts []string
	if summary != "" {
		parts = append(parts, "CONVERSATION SUMMARY: "+summary, "")
	}
	recent := messages
	if maxMessages > 0 && len(recent) > maxMessages {
		recent = recent[len(recent)-maxMessages:]
	}
	for _, msg := range recent {
		role := "Assistant"
		if msg.Role == models.RoleUser {
			role = "User"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s: %s", msg.Timestamp.Format("15:04"), role, msg.Content))
		if len(msg.DocumentContext) > 0 {
			refs := make([]string, 0, len(msg.DocumentContext))
			for _, doc := range msg.DocumentContext {
				if len(doc) > docRefChars {
					doc = doc[:docRefChars] + "..."
				}
				refs = append(refs, doc)
			}
			parts = append(parts, "  Document References: "+strings.Join(refs, "; "))
		}
		if msg.MessageID != "" {
			parts = append(parts, "  ID: "+msg.MessageID)
		}
	}
	return strings.Join(parts, "\n")
}

func statsFor(messages []models.Message, summary string) Stats {
	hashes := make([]string, 0, len(messages))
	for _, msg := range messages {
		if msg.ContextHash != "" {
			hashes = append(hashes, msg.ContextHash)
		}
	}
	return Stats{
		MessageCount:  len(messages),
		HasSummary:    summary != "",
		Summary:       summary,
		ContextHashes: hashes,
	}
}
