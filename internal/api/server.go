package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"factreel/internal/jobs"
	"factreel/internal/logging"
	"factreel/internal/pipeline"
	"factreel/internal/services"
)

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// Generator runs one generation request.
type Generator interface {
	Run(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// JobReader loads persisted jobs.
type JobReader interface {
	Get(ctx context.Context, id string) (*jobs.Job, error)
	List(ctx context.Context, limit int) ([]*jobs.Job, error)
}

// Server serves the HTTP API.
type Server struct {
	bind      string
	token     string
	generator Generator
	store     JobReader
	logger    *slog.Logger

	listener net.Listener
	server   *http.Server
}

// NewServer constructs a Server. token may be empty to disable auth.
func NewServer(bind, token string, generator Generator, store JobReader, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		bind:      strings.TrimSpace(bind),
		token:     strings.TrimSpace(token),
		generator: generator,
		store:     store,
		logger:    logging.NewComponentLogger(logger, "api"),
	}
	s.server = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	videos := r.Group("/api/videos", authMiddleware(s.token))
	videos.POST("", s.handleGenerate)
	videos.GET("", s.handleList)
	videos.GET("/:id", s.handleGet)
	return r
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	if s.bind == "" {
		return services.Wrap(services.ErrConfiguration, "api", "listen", "api.bind not set", nil)
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid request body", "validation")
		return
	}
	res, err := s.generator.Run(c.Request.Context(), pipeline.Request{Topic: req.Topic})
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrMissingTopic):
			writeError(c, http.StatusBadRequest, pipeline.MissingTopicMessage, "validation")
		case errors.Is(err, services.ErrBusy):
			writeError(c, http.StatusConflict, "a generation is already running", "busy")
		default:
			s.logger.Warn("generation failed", logging.Error(err))
			writeError(c, http.StatusInternalServerError, err.Error(), services.FailureKind(err))
		}
		return
	}
	c.JSON(http.StatusCreated, FromResult(res))
}

func (s *Server) handleList(c *gin.Context) {
	limit := defaultListLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, http.StatusBadRequest, "limit must be a positive integer", "validation")
			return
		}
		limit = min(n, maxListLimit)
	}
	items, err := s.store.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error(), "error")
		return
	}
	c.JSON(http.StatusOK, VideoListResponse{Videos: FromJobs(items)})
}

func (s *Server) handleGet(c *gin.Context) {
	job, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(c, http.StatusNotFound, "video not found", "not_found")
		return
	}
	if err != nil {
		writeError(c, http.StatusInternalServerError, err.Error(), "error")
		return
	}
	c.JSON(http.StatusOK, FromJob(job))
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("api request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", time.Since(start)),
		)
	}
}

func writeError(c *gin.Context, status int, message, kind string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Kind: kind})
}
