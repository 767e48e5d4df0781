package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohammad-safakhou/ragchat/config"
	"github.com/mohammad-safakhou/ragchat/internal/docstore"
	"github.com/mohammad-safakhou/ragchat/internal/guardrail"
	"github.com/mohammad-safakhou/ragchat/internal/index"
	"github.com/mohammad-safakhou/ragchat/internal/memory"
	"github.com/mohammad-safakhou/ragchat/internal/retrieval"
	"github.com/mohammad-safakhou/ragchat/internal/websearch"
	"github.com/mohammad-safakhou/ragchat/models"
	"github.com/mohammad-safakhou/ragchat/provider"
)

// Server wires the chat pipeline behind the HTTP API.
type Server struct {
	cfg     *config.Config
	docs    docstore.Store
	index   *index.Index
	memory  memory.Store
	guard   *guardrail.Service
	runtime *Runtime
	logger  *log.Logger
}

// Run builds all dependencies from config and serves until the
// listener fails.
func Run(cfg *config.Config) error {
	e := newEcho()

	if cfg.Storage.Driver == "postgres" {
		if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	docs, err := docstore.NewStore(cfg.Storage)
	if err != nil {
		return err
	}

	prov, err := provider.NewProvider(provider.OpenAI, cfg.Providers)
	if err != nil {
		return err
	}

	ix := index.New(prov, cfg.Index.Path)
	if err := ix.Load(); err != nil {
		return err
	}

	mem := memory.NewStore(cfg.Memory, cfg.Storage.Redis)

	var classifier guardrail.ToxicityClassifier
	if cfg.Guardrail.UseModeration {
		classifier = prov
	}
	guard := guardrail.New(classifier)

	var searcher websearch.Searcher
	if cfg.Search.APIKey != "" {
		searcher, err = websearch.NewSearcher(cfg.Search)
		if err != nil {
			return err
		}
	} else {
		log.Printf("[SERVER] no search api key configured, hybrid retrieval will fall back to basic")
	}

	initial := models.RuntimeConfig{
		SelectedLLM:          cfg.Chat.DefaultLLM,
		SelectedRAGVariant:   models.RAGVariant(cfg.Chat.DefaultRAGVariant),
		EnableInternetSearch: cfg.Chat.EnableInternetSearch,
	}
	rt, err := NewRuntime(initial, func(rc models.RuntimeConfig) (retrieval.Strategy, provider.Provider, error) {
		p, err := provider.NewProviderForSelection(rc.SelectedLLM, cfg.Providers)
		if err != nil {
			return nil, nil, err
		}
		web := searcher
		if !rc.EnableInternetSearch {
			web = nil
		}
		return retrieval.New(rc.SelectedRAGVariant, ix, web, docs), p, nil
	})
	if err != nil {
		return err
	}

	srv := &Server{
		cfg:     cfg,
		docs:    docs,
		index:   ix,
		memory:  mem,
		guard:   guard,
		runtime: rt,
		logger:  log.New(log.Writer(), "[SERVER] ", log.LstdFlags),
	}
	srv.routes(e)

	janitor := &Janitor{
		Index:        ix,
		Memory:       mem,
		MemoryTTL:    cfg.Memory.SessionTTL,
		SweepCron:    cfg.Memory.SweepCron,
		AutosaveCron: cfg.Index.AutosaveCron,
		Stop:         make(chan struct{}),
	}
	janitor.Start()
	defer close(janitor.Stop)

	addr := cfg.Server.Listen
	if addr == "" {
		addr = ":8080"
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(200, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

func (s *Server) routes(e *echo.Echo) {
	api := e.Group("/api")
	if s.cfg.Server.JWTSecret != "" {
		api.Use(AuthMiddleware([]byte(s.cfg.Server.JWTSecret)))
	}

	api.POST("/chat", s.chat)

	docs := api.Group("/documents")
	docs.POST("/upload", s.uploadDocument)
	docs.POST("/upload-multiple", s.uploadMultiple)
	docs.GET("", s.listDocuments)
	docs.GET("/search", s.searchDocuments)
	docs.DELETE("/:id", s.deleteDocument)

	cfgGroup := api.Group("/config")
	cfgGroup.GET("/current", s.currentConfig)
	cfgGroup.POST("/update", s.updateConfig)
	cfgGroup.GET("/llms", s.availableLLMs)
	cfgGroup.GET("/rag-variants", s.ragVariants)

	memGroup := api.Group("/memory")
	memGroup.GET("/:session_id", s.sessionHistory)
	memGroup.GET("/:session_id/stats", s.sessionStats)
	memGroup.DELETE("/:session_id", s.clearSession)
}
