package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mohammad-safakhou/ragchat/models"
)

type session struct {
	messages   []models.Message
	summary    string
	lastActive time.Time
}

// InMemoryStore keeps sessions in a map. The number of sessions is
// unbounded between sweeps; SweepIdle drops sessions idle past a TTL.
type InMemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*session
	maxMessages int
}

func NewInMemoryStore(maxMessages int) *InMemoryStore {
	return &InMemoryStore{
		sessions:    make(map[string]*session),
		maxMessages: maxMessages,
	}
}

func (s *InMemoryStore) Add(ctx context.Context, sessionID, role, content string, docContext []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	sess.messages = append(sess.messages, newMessage(role, content, docContext))
	if len(sess.messages) > s.maxMessages {
		sess.messages = sess.messages[len(sess.messages)-s.maxMessages:]
	}
	if len(sess.messages) >= 3 {
		sess.summary = deriveSummary(sess.messages)
	}
	sess.lastActive = time.Now()
	return nil
}

func (s *InMemoryStore) History(ctx context.Context, sessionID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]models.Message, len(sess.messages))
	copy(out, sess.messages)
	return out
}

func (s *InMemoryStore) ContextString(ctx context.Context, sessionID string, maxMessages int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return ""
	}
	return formatContext(sess.summary, sess.messages, maxMessages)
}

func (s *InMemoryStore) Stats(ctx context.Context, sessionID string) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return Stats{}
	}
	return statsFor(sess.messages, sess.summary)
}

// Clear drops all state for a session. Idempotent.
func (s *InMemoryStore) Clear(ctx context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *InMemoryStore) Sessions(ctx context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		out = append(out, id)
	}
	return out
}

// SweepIdle removes sessions whose last activity is older than ttl and
// reports how many were dropped.
func (s *InMemoryStore) SweepIdle(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-ttl)
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int
	for id, sess := range s.sessions {
		if sess.lastActive.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
