package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/ragchat/models"
)

const defaultTopK = 3

// Chat
//
//	@Summary		Chat with the assistant
//	@Description	Runs guardrails, retrieval and generation for one turn
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		models.ChatRequest	true	"Chat payload"
//	@Success		200		{object}	models.ChatResponse
//	@Failure		400		{object}	models.ChatResponse
//	@Router			/api/chat [post]
func (s *Server) chat(c echo.Context) error {
	var req models.ChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	ctx := c.Request().Context()
	rc := s.runtime.Config()

	docIDs := req.DocumentIDs
	if len(docIDs) == 0 {
		docIDs = rc.SelectedDocuments
	}
	var docContext []string
	if len(docIDs) > 0 {
		docContext = s.docs.Content(ctx, docIDs)
		s.logger.Printf("using %d document contexts", len(docContext))
	}

	// Rejected messages are never written to memory.
	report := s.guard.Validate(ctx, req.Message, req.Images, docContext)
	if !report.Safe {
		s.logger.Printf("request rejected: %s", report.RejectionReason)
		chatRequests.WithLabelValues("rejected").Inc()
		recordRejections(report)
		return c.JSON(http.StatusBadRequest, models.ChatResponse{
			Response:        "Request rejected: " + report.RejectionReason,
			Sources:         []models.SearchResult{},
			SessionID:       req.SessionID,
			IsRelevant:      report.IsRelevant,
			RejectionReason: report.RejectionReason,
		})
	}

	if err := s.memory.Add(ctx, req.SessionID, models.RoleUser, req.Message, docContext); err != nil {
		s.logger.Printf("record user message: %v", err)
	}
	conversation := s.memory.ContextString(ctx, req.SessionID, 5)

	// Retrieval is best effort: a failed search degrades to an
	// answer without sources.
	var sources []models.SearchResult
	if len(docIDs) > 0 || rc.EnableInternetSearch {
		results, err := s.runtime.Strategy().Search(ctx, req.Message, defaultTopK)
		if err != nil {
			s.logger.Printf("retrieval failed: %v", err)
		} else {
			sources = results
			retrievalResults.WithLabelValues(string(rc.SelectedRAGVariant)).Add(float64(len(results)))
		}
	}

	completion, err := s.runtime.Provider().Complete(ctx, buildSystemPrompt(conversation, sources, docContext), req.Message, req.Images)
	if err != nil {
		chatRequests.WithLabelValues("error").Inc()
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("chat processing failed: %v", err))
	}

	if err := s.memory.Add(ctx, req.SessionID, models.RoleAssistant, completion.Content, docContext); err != nil {
		s.logger.Printf("record assistant message: %v", err)
	}

	chatRequests.WithLabelValues("ok").Inc()
	if sources == nil {
		sources = []models.SearchResult{}
	}
	return c.JSON(http.StatusOK, models.ChatResponse{
		Response:   completion.Content,
		Sources:    sources,
		SessionID:  req.SessionID,
		TokensUsed: completion.TokensUsed,
		IsRelevant: true,
	})
}

func buildSystemPrompt(conversation string, sources []models.SearchResult, docContext []string) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant. Answer using the provided context when it is relevant.")
	if conversation != "" {
		b.WriteString("\n\nConversation so far:\n")
		b.WriteString(conversation)
	}
	if len(sources) > 0 {
		b.WriteString("\n\nRetrieved context:\n")
		for _, src := range sources {
			if src.Content == "" {
				continue
			}
			b.WriteString(src.Content)
			b.WriteString("\n")
		}
	}
	if len(docContext) > 0 {
		b.WriteString("\n\nSelected documents:\n")
		b.WriteString(strings.Join(docContext, "\n---\n"))
	}
	return b.String()
}
