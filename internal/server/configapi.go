package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/ragchat/models"
)

func (s *Server) currentConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, s.runtime.Config())
}

// updateConfig replaces the runtime configuration wholesale and
// rebuilds the retrieval strategy and provider for it.
func (s *Server) updateConfig(c echo.Context) error {
	var next models.RuntimeConfig
	if err := c.Bind(&next); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if next.SelectedLLM == "" {
		next.SelectedLLM = s.cfg.Chat.DefaultLLM
	}
	if err := s.runtime.Replace(next); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "configuration update failed: "+err.Error())
	}
	s.logger.Printf("configuration updated: llm=%s rag=%s", next.SelectedLLM, next.SelectedRAGVariant)
	return c.JSON(http.StatusOK, map[string]string{"status": "configuration updated"})
}

func (s *Server) availableLLMs(c echo.Context) error {
	llms := s.cfg.Chat.AvailableLLMs
	if llms == nil {
		llms = []string{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"llms": llms})
}

func (s *Server) ragVariants(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"variants": []models.RAGVariant{models.RAGBasic, models.RAGKnowledgeGraph, models.RAGHybrid},
	})
}
