package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/ragchat/internal/memory"
	"github.com/mohammad-safakhou/ragchat/models"
)

func memoryContext(t *testing.T, srv *Server, method, sessionID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/api/memory/"+sessionID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(sessionID)
	return c, rec
}

func TestSessionHistoryAndStats(t *testing.T) {
	srv := newTestServer(t, stubStrategy{}, stubProvider{})
	ctx := context.Background()

	_ = srv.memory.Add(ctx, "s1", models.RoleUser, "can you help me search this document?", nil)
	_ = srv.memory.Add(ctx, "s1", models.RoleAssistant, "of course", nil)
	_ = srv.memory.Add(ctx, "s1", models.RoleUser, "thanks", nil)

	c, rec := memoryContext(t, srv, http.MethodGet, "s1")
	if err := srv.sessionHistory(c); err != nil {
		t.Fatalf("history: %v", err)
	}
	var histResp struct {
		SessionID string           `json:"session_id"`
		History   []models.Message `json:"history"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &histResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if histResp.SessionID != "s1" || len(histResp.History) != 3 {
		t.Fatalf("unexpected history response: %+v", histResp)
	}

	c, rec = memoryContext(t, srv, http.MethodGet, "s1")
	if err := srv.sessionStats(c); err != nil {
		t.Fatalf("stats: %v", err)
	}
	var statsResp struct {
		Stats memory.Stats `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &statsResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if statsResp.Stats.MessageCount != 3 || !statsResp.Stats.HasSummary {
		t.Fatalf("unexpected stats: %+v", statsResp.Stats)
	}
	if len(statsResp.Stats.ContextHashes) != 3 {
		t.Fatalf("expected 3 context hashes, got %d", len(statsResp.Stats.ContextHashes))
	}
}

func TestClearSession(t *testing.T) {
	srv := newTestServer(t, stubStrategy{}, stubProvider{})
	ctx := context.Background()
	_ = srv.memory.Add(ctx, "s1", models.RoleUser, "hello", nil)

	c, rec := memoryContext(t, srv, http.MethodDelete, "s1")
	if err := srv.clearSession(c); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := srv.memory.History(ctx, "s1"); len(got) != 0 {
		t.Fatalf("history not cleared: %d messages", len(got))
	}

	// Clearing an unknown session is fine.
	c, rec = memoryContext(t, srv, http.MethodDelete, "never-existed")
	if err := srv.clearSession(c); err != nil {
		t.Fatalf("clear unknown: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
