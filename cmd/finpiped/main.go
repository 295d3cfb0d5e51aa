package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/currency"
	"github.com/dmaraujo/finpipe/internal/export"
	"github.com/dmaraujo/finpipe/internal/llm"
	"github.com/dmaraujo/finpipe/internal/llm/openai"
	"github.com/dmaraujo/finpipe/internal/ocr"
	"github.com/dmaraujo/finpipe/internal/pipeline"
	"github.com/dmaraujo/finpipe/internal/profit"
	"github.com/dmaraujo/finpipe/internal/repasse"
	"github.com/dmaraujo/finpipe/internal/repository"
	"github.com/dmaraujo/finpipe/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	txRepo := repository.NewTransactionRepository(pool, logger)
	rateRepo := repository.NewRateRepository(pool, logger)
	repasseRepo := repository.NewRepasseRepository(pool, logger)
	accountRepo := repository.NewAccountRepository(pool)
	fixedRepo := repository.NewFixedRepository(pool)
	usageRepo := repository.NewUsageRepository(pool)
	jobRepo := repository.NewJobRepository(pool)

	docai, err := ocr.NewDocAI(ctx, cfg.OCR, logger)
	if err != nil {
		logger.Error("failed to create ocr client", "error", err)
		os.Exit(1)
	}
	defer docai.Close()
	limiter := ocr.NewLimiter(usageRepo, cfg.OCR.DailyLimit, logger)

	var extractor llm.Extractor
	if cfg.LLM.Enabled {
		extractor = openai.NewClient(openai.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
	}

	conv := currency.NewConverter(cfg.Currency.FallbackEURBRL, logger)
	rateSvc := currency.NewService(rateRepo, conv, logger)
	profitEngine := profit.NewEngine(txRepo, fixedRepo, rateSvc, conv, logger)
	repasseSvc := repasse.NewService(repasseRepo, accountRepo, profitEngine, rateSvc, conv, logger)
	pl := pipeline.New(docai, limiter, extractor, jobRepo, logger)
	exporter := export.NewService(txRepo, logger)

	srv := server.New(pl, profitEngine, repasseSvc, exporter, txRepo, rateRepo, repasseRepo, jobRepo, logger)
	if err := srv.Run(ctx, cfg.Server.HTTPAddr, cfg.Server.AllowOrigins); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
