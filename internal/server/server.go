package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"fairbot/internal/assistant"
	"fairbot/internal/corrections"
	"fairbot/internal/history"
	"fairbot/internal/logger"
	"fairbot/internal/logstore"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
)

type Chatter interface {
	Ask(ctx context.Context, sessionID, question string) (assistant.Reply, error)
}

type CorrectionWriter interface {
	RecordCorrection(ctx context.Context, in logstore.CorrectionInput) (logstore.Entry, error)
}

type HistoryReader interface {
	GetHistory(ctx context.Context, sessionID string, page, pageSize int) (history.Page, error)
}

type CorrectionFinder interface {
	Find(ctx context.Context, query string, limit int) ([]corrections.Correction, error)
}

// Deps are the services behind the HTTP API. Chat may be nil, in which case
// /chat reports the assistant as unavailable.
type Deps struct {
	Chat        Chatter
	Corrections CorrectionWriter
	History     HistoryReader
	Matcher     CorrectionFinder
}

// Server exposes the chat and admin API over HTTP.
type Server struct {
	engine *gin.Engine
	deps   Deps
	addr   string
	server *http.Server
	log    *zap.SugaredLogger
}

func New(deps Deps, addr string, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(log))
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{engine: engine, deps: deps, addr: addr, log: log}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.POST("/chat", s.handleChat)
	s.engine.POST("/admin/correct", s.handleCorrect)
	s.engine.GET("/admin/history", s.handleHistory)
	s.engine.GET("/admin/corrections", s.handleFindCorrections)

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.NoRoute(func(c *gin.Context) {
		s.log.Warnw("unsupported request", "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unsupported HTTP method or path."})
	})
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start blocks until the server stops. It returns nil after Stop.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.log.Infow("http server listening", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// requestLogger attaches a request-scoped logger and logs each request once.
func requestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log.With("method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context(), reqLog))
		c.Next()
		reqLog.Infow("request", "status", c.Writer.Status(), "duration", time.Since(start))
	}
}
