package currency

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dmaraujo/finpipe/internal/entity"
)

// RateStore is the persistence surface the service needs.
type RateStore interface {
	// SnapshotOn returns the snapshot for exactly the given date, or nil.
	SnapshotOn(ctx context.Context, date time.Time) (*entity.RateSnapshot, error)
	// LatestSnapshot returns the most recent snapshot on or before the given
	// date, or nil when none exists.
	LatestSnapshot(ctx context.Context, before time.Time) (*entity.RateSnapshot, error)
}

// Service resolves the snapshot to convert with: today's rates when stored,
// otherwise the most recent ones. Store errors degrade to the converter's
// fallback chain instead of failing the caller.
type Service struct {
	store  RateStore
	conv   *Converter
	logger *slog.Logger
}

func NewService(store RateStore, conv *Converter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, conv: conv, logger: logger}
}

// SnapshotFor returns the best snapshot for the given date, or nil.
func (s *Service) SnapshotFor(ctx context.Context, date time.Time) *entity.RateSnapshot {
	day := date.Truncate(24 * time.Hour)
	snap, err := s.store.SnapshotOn(ctx, day)
	if err != nil {
		s.logger.Warn("currency.snapshot_lookup_failed", "date", day, "error", err)
		return nil
	}
	if snap != nil {
		return snap
	}
	snap, err = s.store.LatestSnapshot(ctx, day)
	if err != nil {
		s.logger.Warn("currency.snapshot_lookup_failed", "date", day, "error", err)
		return nil
	}
	return snap
}

// ConvertOn converts with the rates in effect on the given date.
func (s *Service) ConvertOn(ctx context.Context, amount decimal.Decimal, from, to string, date time.Time) decimal.Decimal {
	if from == to {
		return amount.Round(2)
	}
	return s.conv.Convert(amount, from, to, s.SnapshotFor(ctx, date))
}
