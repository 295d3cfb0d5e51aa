package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/pipeline"
)

// FileResult is the outcome for one file in a batch run.
type FileResult struct {
	Path         string
	JobID        uuid.UUID
	DocType      string
	Strategy     string
	Transactions int
	Err          string
}

// DirStats aggregates a batch run.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// Batch pushes a directory of documents through the pipeline with bounded
// concurrency. Per-file failures are recorded, not fatal; only a broken walk
// aborts the run.
type Batch struct {
	pipeline *pipeline.Pipeline
	workers  int
	logger   *slog.Logger
}

func NewBatch(pl *pipeline.Pipeline, workers int, logger *slog.Logger) *Batch {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{pipeline: pl, workers: workers, logger: logger}
}

// IngestDirectory walks root, filters to the allowed upload extensions, skips
// hidden entries, and processes every match. Results come back in no
// particular order.
func (b *Batch) IngestDirectory(ctx context.Context, userID uuid.UUID, root string) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var (
		mu      sync.Mutex
		results []FileResult
		stats   DirStats
	)
	record := func(r FileResult, ok bool) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
		if ok {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		stats.Scanned++
		if err != nil {
			record(FileResult{Path: path, Err: err.Error()}, false)
			return nil
		}
		if isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			return nil
		}
		stats.Matched++

		g.Go(func() error {
			b.processOne(gctx, userID, path, record)
			return nil
		})
		return nil
	})

	_ = g.Wait()
	if walkErr != nil {
		return results, stats, walkErr
	}
	return results, stats, nil
}

func (b *Batch) processOne(ctx context.Context, userID uuid.UUID, path string, record func(FileResult, bool)) {
	content, err := os.ReadFile(path)
	if err != nil {
		record(FileResult{Path: path, Err: err.Error()}, false)
		return
	}
	res, err := b.pipeline.Process(ctx, userID, filepath.Base(path), content, "")
	if err != nil {
		b.logger.Warn("ingest.file_failed", "path", path, "error", err)
		record(FileResult{Path: path, Err: err.Error()}, false)
		return
	}
	record(FileResult{
		Path:         path,
		JobID:        res.Job.ID,
		DocType:      string(res.DocType),
		Strategy:     res.Strategy,
		Transactions: len(res.Transactions),
	}, true)
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
