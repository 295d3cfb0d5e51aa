package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmaraujo/finpipe/internal/common"
)

// UsageRepository tracks daily OCR call counts.
type UsageRepository struct {
	pool *pgxpool.Pool
}

func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// CountOn returns the number of OCR calls recorded for the given day.
func (r *UsageRepository) CountOn(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT call_count FROM ocr_usage WHERE usage_date = $1`,
		day).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, common.NewAppError("DB_SCAN", "read ocr usage", err)
	}
	return count, nil
}

// Increment bumps the counter for the given day atomically; concurrent
// uploads never lose an increment.
func (r *UsageRepository) Increment(ctx context.Context, day time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ocr_usage (usage_date, call_count)
		VALUES ($1, 1)
		ON CONFLICT (usage_date) DO UPDATE SET call_count = ocr_usage.call_count + 1`,
		day)
	if err != nil {
		return common.NewAppError("DB_UPSERT", "increment ocr usage", err)
	}
	return nil
}
