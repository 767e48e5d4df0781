package openai_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mohammad-safakhou/ragchat/config"
)

func testClient(t *testing.T, handler http.HandlerFunc) *client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.OpenAIConfig{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		CompletionModel: "gpt-4o-mini",
		EmbeddingModel:  "text-embedding-3-small",
		ModerationModel: "omni-moderation-latest",
	})
}

func TestCompleteParsesContentAndTokens(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "hello back"}},
			},
			"usage": map[string]int{"total_tokens": 17},
		})
	})

	got, err := c.Complete(context.Background(), "be brief", "hello", nil)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Content != "hello back" || got.TokensUsed != 17 {
		t.Fatalf("unexpected completion: %+v", got)
	}
}

func TestCompleteAppendsImageReferences(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		user := req.Messages[len(req.Messages)-1]
		if user.Content != "look\n[image attached: cat.png]" {
			t.Errorf("image reference not appended: %q", user.Content)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{"message": map[string]string{"content": "ok"}}},
		})
	})
	if _, err := c.Complete(context.Background(), "", "look", []string{"cat.png"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
}

func TestCreateEmbedding(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2}, "index": 0},
				{"embedding": []float32{0.3, 0.4}, "index": 1},
			},
		})
	})

	vecs, err := c.CreateEmbedding(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("embedding: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 2 {
		t.Fatalf("unexpected vectors: %v", vecs)
	}
}

func TestModerateTextReturnsMaxCategoryScore(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/moderations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"results": []map[string]interface{}{
				{"category_scores": map[string]float64{"hate": 0.2, "violence": 0.75, "sexual": 0.1}},
			},
		})
	})

	score, err := c.ModerateText(context.Background(), "some text")
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	if score != 0.75 {
		t.Fatalf("expected max score 0.75, got %f", score)
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	if _, err := c.Complete(context.Background(), "", "hello", nil); err == nil {
		t.Fatalf("expected error on 429")
	}
}
