// Command batch processes a directory of documents through the full
// pipeline: quota gate, OCR, classification and extraction, persisting jobs
// along the way.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/ingest"
	"github.com/dmaraujo/finpipe/internal/llm"
	"github.com/dmaraujo/finpipe/internal/llm/openai"
	"github.com/dmaraujo/finpipe/internal/ocr"
	"github.com/dmaraujo/finpipe/internal/pipeline"
	"github.com/dmaraujo/finpipe/internal/repository"
)

func main() {
	var (
		root    = flag.String("dir", "", "directory to ingest")
		user    = flag.String("user", "", "user id the documents belong to")
		workers = flag.Int("workers", 4, "concurrent documents")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if *root == "" || *user == "" {
		fmt.Fprintln(os.Stderr, "usage: batch -dir <path> -user <uuid> [-workers n]")
		os.Exit(2)
	}
	userID, err := uuid.Parse(*user)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid user id:", err)
		os.Exit(2)
	}

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

	docai, err := ocr.NewDocAI(ctx, cfg.OCR, logger)
	if err != nil {
		logger.Error("failed to create ocr client", "error", err)
		os.Exit(1)
	}
	defer docai.Close()
	limiter := ocr.NewLimiter(repository.NewUsageRepository(pool), cfg.OCR.DailyLimit, logger)

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

	pl := pipeline.New(docai, limiter, extractor, repository.NewJobRepository(pool), logger)
	batch := ingest.NewBatch(pl, *workers, logger)

	results, stats, err := batch.IngestDirectory(ctx, userID, *root)
	if err != nil {
		logger.Error("batch walk failed", "error", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.Err != "" {
			fmt.Printf("FAIL %-50s %s\n", r.Path, r.Err)
			continue
		}
		fmt.Printf("OK   %-50s %-14s %-16s txs=%d\n", r.Path, r.DocType, r.Strategy, r.Transactions)
	}
	fmt.Printf("scanned=%d matched=%d succeeded=%d failed=%d\n",
		stats.Scanned, stats.Matched, stats.Succeeded, stats.Failed)
}
