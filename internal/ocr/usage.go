package ocr

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmaraujo/finpipe/internal/common"
)

// UsageStore tracks OCR calls per calendar day.
type UsageStore interface {
	// CountOn returns the number of OCR calls recorded for the given day.
	CountOn(ctx context.Context, day time.Time) (int, error)
	// Increment atomically bumps the counter for the given day.
	Increment(ctx context.Context, day time.Time) error
}

// Limiter gates OCR calls behind a daily budget. The check runs before the
// provider call and the increment after a successful one, so failed calls do
// not consume quota.
type Limiter struct {
	store  UsageStore
	limit  int
	logger *slog.Logger
}

func NewLimiter(store UsageStore, limit int, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{store: store, limit: limit, logger: logger}
}

// Allow returns ErrQuotaExceeded when today's budget is spent. A limit of
// zero or less disables the gate.
func (l *Limiter) Allow(ctx context.Context, now time.Time) error {
	if l.limit <= 0 {
		return nil
	}
	used, err := l.store.CountOn(ctx, day(now))
	if err != nil {
		return err
	}
	if used >= l.limit {
		l.logger.Warn("ocr.quota.exceeded", "used", used, "limit", l.limit)
		return common.NewAppError("QUOTA_EXCEEDED", "daily OCR quota exceeded", common.ErrQuotaExceeded)
	}
	return nil
}

// Record counts one successful OCR call against today's budget.
func (l *Limiter) Record(ctx context.Context, now time.Time) error {
	if l.limit <= 0 {
		return nil
	}
	return l.store.Increment(ctx, day(now))
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
