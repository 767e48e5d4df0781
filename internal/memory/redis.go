package memory

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/ragchat/models"
)

// RedisStore keeps each session as a capped redis list plus a summary
// key. Session expiry is delegated to redis key TTLs, so no sweep is
// needed for this backend.
type RedisStore struct {
	client      *redis.Client
	maxMessages int
	ttl         time.Duration
	logger      *log.Logger
}

func NewRedisStore(addr, password string, db, maxMessages int, ttl time.Duration) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{
		client:      rdb,
		maxMessages: maxMessages,
		ttl:         ttl,
		logger:      log.New(log.Writer(), "[MEMORY] ", log.LstdFlags),
	}
}

func messagesKey(sessionID string) string { return "mem:" + sessionID + ":messages" }
func summaryKey(sessionID string) string  { return "mem:" + sessionID + ":summary" }

func (s *RedisStore) Add(ctx context.Context, sessionID, role, content string, docContext []string) error {
	msg := newMessage(role, content, docContext)
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	key := messagesKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, raw)
	pipe.LTrim(ctx, key, int64(-s.maxMessages), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}

	msgs := s.History(ctx, sessionID)
	if len(msgs) >= 3 {
		summary := deriveSummary(msgs)
		if err := s.client.Set(ctx, summaryKey(sessionID), summary, s.ttl).Err(); err != nil {
			s.logger.Printf("set summary for %s: %v", sessionID, err)
		}
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, sessionID string) []models.Message {
	raws, err := s.client.LRange(ctx, messagesKey(sessionID), 0, -1).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Printf("history for %s: %v", sessionID, err)
		}
		return nil
	}
	out := make([]models.Message, 0, len(raws))
	for _, raw := range raws {
		var msg models.Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func (s *RedisStore) ContextString(ctx context.Context, sessionID string, maxMessages int) string {
	msgs := s.History(ctx, sessionID)
	if len(msgs) == 0 {
		return ""
	}
	summary, _ := s.client.Get(ctx, summaryKey(sessionID)).Result()
	return formatContext(summary, msgs, maxMessages)
}

func (s *RedisStore) Stats(ctx context.Context, sessionID string) Stats {
	msgs := s.History(ctx, sessionID)
	summary, _ := s.client.Get(ctx, summaryKey(sessionID)).Result()
	return statsFor(msgs, summary)
}

func (s *RedisStore) Clear(ctx context.Context, sessionID string) {
	if err := s.client.Del(ctx, messagesKey(sessionID), summaryKey(sessionID)).Err(); err != nil {
		s.logger.Printf("clear %s: %v", sessionID, err)
	}
}

func (s *RedisStore) Sessions(ctx context.Context) []string {
	var out []string
	iter := s.client.Scan(ctx, 0, "mem:*:messages", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		id := strings.TrimSuffix(strings.TrimPrefix(key, "mem:"), ":messages")
		out = append(out, id)
	}
	if err := iter.Err(); err != nil {
		s.logger.Printf("scan sessions: %v", err)
	}
	return out
}
