package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Binidu01/video-fetcher/internal/aggregate"
	"github.com/Binidu01/video-fetcher/internal/config"
	"github.com/Binidu01/video-fetcher/internal/downloader"
	"github.com/Binidu01/video-fetcher/internal/fetch"
	"github.com/Binidu01/video-fetcher/internal/thumbnail"
	"github.com/Binidu01/video-fetcher/internal/version"
)

// Response is the standard API response structure
type Response struct {
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
}

// FetchRequest is the request body for POST /api/fetch
type FetchRequest struct {
	URL            string `json:"url" binding:"required"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// DownloadRequest is the request body for POST /api/download
type DownloadRequest struct {
	URL      string `json:"url" binding:"required"`
	Filename string `json:"filename,omitempty"`
}

// Fetcher runs the candidate pipeline against a single page URL.
// *aggregate.Aggregator is the production implementation.
type Fetcher interface {
	Run(ctx context.Context, rawURL string) (*aggregate.Result, error)
}

// Server is the HTTP server for video-fetcher
type Server struct {
	port      int
	outputDir string
	apiKey    string
	fetcher   Fetcher
	jobQueue  *JobQueue
	cfg       *config.Config
	logger    *zap.Logger
	server    *http.Server
	engine    *gin.Engine
}

// NewServer creates a new HTTP server from the resolved config
func NewServer(cfg *config.Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		port:      cfg.Server.Port,
		outputDir: cfg.OutputDir,
		apiKey:    cfg.Server.APIKey,
		fetcher:   aggregate.New(cfg),
		cfg:       cfg,
		logger:    logger,
	}

	dl := downloader.New(cfg.OutputDir, cfg.UserAgent, logger)

	var thumbFn ThumbnailFunc
	if gen, err := thumbnail.New(); err != nil {
		logger.Info("thumbnails unavailable", zap.Error(err))
	} else {
		thumbFn = gen.Generate
	}

	s.jobQueue = NewJobQueue(cfg.Server.MaxConcurrent, dl.Download, thumbFn, logger)

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	s.jobQueue.Start()

	gin.SetMode(gin.ReleaseMode)
	s.engine = s.buildEngine()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.engine,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // No timeout so large file downloads are not cut off
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("starting server",
		zap.Int("port", s.port),
		zap.String("output_dir", s.outputDir),
		zap.Bool("auth", s.apiKey != ""))

	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	s.jobQueue.Stop()
	return s.server.Shutdown(ctx)
}

func (s *Server) buildEngine() *gin.Engine {
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(s.loggingMiddleware())
	if s.apiKey != "" {
		engine.Use(s.authMiddleware())
	}

	api := engine.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/fetch", s.handleFetch)
	api.POST("/download", s.handleDownload)
	api.GET("/status/:id", s.handleStatus)
	api.GET("/jobs", s.handleGetJobs)
	api.DELETE("/jobs", s.handleClearJobs)
	api.DELETE("/jobs/:id", s.handleDeleteJob)

	// Downloaded files and thumbnails
	engine.StaticFS("/files", http.Dir(s.outputDir))

	s.setupStaticFiles(engine)

	return engine
}

// setupStaticFiles serves the embedded web UI with fallback to index.html
func (s *Server) setupStaticFiles(engine *gin.Engine) {
	staticFS := GetStaticFS()
	if staticFS == nil {
		return
	}

	serveIndex := func(c *gin.Context) {
		indexFile, err := fs.ReadFile(staticFS, "index.html")
		if err != nil {
			c.String(http.StatusNotFound, "index.html not found")
			return
		}
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, string(indexFile))
	}

	engine.GET("/", serveIndex)

	engine.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, Response{
				Code:    404,
				Data:    nil,
				Message: "not found",
			})
			return
		}
		serveIndex(c)
	})
}

// Middleware

func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		// Health endpoint and the UI don't require auth
		if path == "/api/health" || !isProtectedPath(path) {
			c.Next()
			return
		}

		if c.GetHeader("X-API-Key") != s.apiKey {
			c.JSON(http.StatusUnauthorized, Response{
				Code:    401,
				Data:    nil,
				Message: "invalid or missing API key",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func isProtectedPath(path string) bool {
	return strings.HasPrefix(path, "/api") || strings.HasPrefix(path, "/files")
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"status":  "ok",
			"version": version.Version,
		},
		Message: "everything is good",
	})
}

func (s *Server) handleFetch(c *gin.Context) {
	var req FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: "invalid request body: url is required",
		})
		return
	}

	timeout := s.cfg.Timeout()
	if req.TimeoutSeconds > 0 {
		timeout = time.Duration(req.TimeoutSeconds) * time.Second
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
	defer cancel()

	result, err := s.fetcher.Run(ctx, req.URL)
	if err != nil {
		status := http.StatusInternalServerError
		var fetchErr *fetch.Error
		switch {
		case errors.Is(err, fetch.ErrInvalidURL):
			status = http.StatusBadRequest
		case errors.As(err, &fetchErr):
			status = http.StatusBadGateway
		}
		c.JSON(status, Response{
			Code:    status,
			Data:    nil,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    result,
		Message: fmt.Sprintf("%d videos found", len(result.Videos)),
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: "invalid request body: url is required",
		})
		return
	}

	if _, err := fetch.ValidateURL(req.URL); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Code:    400,
			Data:    nil,
			Message: err.Error(),
		})
		return
	}

	job := s.jobQueue.AddJob(req.URL, req.Filename)

	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"id":     job.ID,
			"status": job.Status,
		},
		Message: "download queued",
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	id := c.Param("id")

	job, ok := s.jobQueue.GetJob(id)
	if !ok {
		c.JSON(http.StatusNotFound, Response{
			Code:    404,
			Data:    nil,
			Message: "job not found",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    200,
		Data:    job,
		Message: string(job.Status),
	})
}

func (s *Server) handleGetJobs(c *gin.Context) {
	jobs := s.jobQueue.ListJobs()

	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"jobs": jobs,
		},
		Message: fmt.Sprintf("%d jobs found", len(jobs)),
	})
}

func (s *Server) handleClearJobs(c *gin.Context) {
	count := s.jobQueue.ClearHistory()
	c.JSON(http.StatusOK, Response{
		Code: 200,
		Data: gin.H{
			"cleared": count,
		},
		Message: fmt.Sprintf("%d jobs cleared", count),
	})
}

func (s *Server) handleDeleteJob(c *gin.Context) {
	id := c.Param("id")

	// Cancel an active job, or remove a finished one
	if s.jobQueue.CancelJob(id) {
		c.JSON(http.StatusOK, Response{
			Code:    200,
			Data:    gin.H{"id": id},
			Message: "job cancelled",
		})
	} else if s.jobQueue.RemoveJob(id) {
		c.JSON(http.StatusOK, Response{
			Code:    200,
			Data:    gin.H{"id": id},
			Message: "job removed",
		})
	} else {
		c.JSON(http.StatusNotFound, Response{
			Code:    404,
			Data:    nil,
			Message: "job not found or cannot be cancelled/removed",
		})
	}
}
