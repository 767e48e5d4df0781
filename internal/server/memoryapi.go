package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/ragchat/models"
)

func (s *Server) sessionHistory(c echo.Context) error {
	id := c.Param("session_id")
	history := s.memory.History(c.Request().Context(), id)
	if history == nil {
		history = []models.Message{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": id,
		"history":    history,
	})
}

func (s *Server) sessionStats(c echo.Context) error {
	id := c.Param("session_id")
	stats := s.memory.Stats(c.Request().Context(), id)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": id,
		"stats":      stats,
	})
}

func (s *Server) clearSession(c echo.Context) error {
	s.memory.Clear(c.Request().Context(), c.Param("session_id"))
	return c.JSON(http.StatusOK, map[string]string{"status": "memory cleared"})
}
