package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/export"
	"github.com/dmaraujo/finpipe/internal/pipeline"
	"github.com/dmaraujo/finpipe/internal/profit"
	"github.com/dmaraujo/finpipe/internal/repasse"
	"github.com/dmaraujo/finpipe/internal/repository"
)

// Server wires the HTTP surface over the domain services. Handlers stay thin;
// all behavior lives in the packages they call.
type Server struct {
	pipeline *pipeline.Pipeline
	profit   *profit.Engine
	repasse  *repasse.Service
	exporter *export.Service
	txs      *repository.TransactionRepository
	rates    *repository.RateRepository
	rules    *repository.RepasseRepository
	jobs     *repository.JobRepository
	logger   *slog.Logger
}

func New(
	pl *pipeline.Pipeline,
	pe *profit.Engine,
	rs *repasse.Service,
	exporter *export.Service,
	txs *repository.TransactionRepository,
	rates *repository.RateRepository,
	rules *repository.RepasseRepository,
	jobs *repository.JobRepository,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		pipeline: pl,
		profit:   pe,
		repasse:  rs,
		exporter: exporter,
		txs:      txs,
		rates:    rates,
		rules:    rules,
		jobs:     jobs,
		logger:   logger,
	}
}

// Router builds the gin engine with CORS and all routes registered.
func (s *Server) Router(allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	corsCfg := cors.DefaultConfig()
	if len(allowOrigins) > 0 {
		corsCfg.AllowOrigins = allowOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "X-User-ID")
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", s.handleHealth)

	api := r.Group("/api/v1")
	{
		api.POST("/documents", s.handleUpload)
		api.GET("/jobs", s.handleListJobs)
		api.GET("/jobs/:id", s.handleGetJob)
		api.GET("/profit", s.handleProfit)
		api.POST("/repasse/rules", s.handleCreateRule)
		api.GET("/repasse/forecast", s.handleRepasseForecast)
		api.POST("/repasse/:id/execute", s.handleRepasseExecute)
		api.PUT("/rates", s.handleUpsertRates)
		api.GET("/export/transactions.xlsx", s.handleExport)
	}
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string, allowOrigins []string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(allowOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server.shutdown")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("http.request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed_ms", time.Since(start).Milliseconds())
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// userID reads the authenticated user from the X-User-ID header. The real
// authentication layer sits in front of this service.
func userID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.GetHeader("X-User-ID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid X-User-ID header"})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, common.ErrQuotaExceeded):
		status = http.StatusTooManyRequests
	case errors.Is(err, common.ErrNoTransactions):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrProviderUnavailable):
		status = http.StatusBadGateway
	}

	var appErr *common.AppError
	if errors.As(err, &appErr) {
		c.JSON(status, gin.H{"error": appErr.Message, "code": appErr.Code})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
