package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// RateRepository stores daily exchange-rate snapshots.
type RateRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRateRepository(pool *pgxpool.Pool, logger *slog.Logger) *RateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateRepository{pool: pool, logger: logger}
}

const rateColumns = `rate_date, eur_to_brl, brl_to_eur, eur_to_usd, usd_to_eur, usd_to_brl, brl_to_usd`

// SnapshotOn returns the snapshot stored for exactly the given date, or nil.
func (r *RateRepository) SnapshotOn(ctx context.Context, date time.Time) (*entity.RateSnapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+rateColumns+`
		FROM exchange_rates
		WHERE rate_date = $1`,
		date)
	return scanSnapshot(row)
}

// LatestSnapshot returns the most recent snapshot on or before the given
// date, or nil when none exists.
func (r *RateRepository) LatestSnapshot(ctx context.Context, before time.Time) (*entity.RateSnapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+rateColumns+`
		FROM exchange_rates
		WHERE rate_date <= $1
		ORDER BY rate_date DESC
		LIMIT 1`,
		before)
	return scanSnapshot(row)
}

// Upsert stores or replaces the snapshot for its date.
func (r *RateRepository) Upsert(ctx context.Context, snap entity.RateSnapshot) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO exchange_rates (`+rateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (rate_date) DO UPDATE SET
			eur_to_brl = EXCLUDED.eur_to_brl,
			brl_to_eur = EXCLUDED.brl_to_eur,
			eur_to_usd = EXCLUDED.eur_to_usd,
			usd_to_eur = EXCLUDED.usd_to_eur,
			usd_to_brl = EXCLUDED.usd_to_brl,
			brl_to_usd = EXCLUDED.brl_to_usd`,
		snap.RateDate, snap.EURToBRL, snap.BRLToEUR, snap.EURToUSD,
		snap.USDToEUR, snap.USDToBRL, snap.BRLToUSD)
	if err != nil {
		return common.NewAppError("DB_UPSERT", "upsert exchange rates", err)
	}
	r.logger.Info("rates.upserted", "rate_date", snap.RateDate.Format("2006-01-02"))
	return nil
}

func scanSnapshot(row pgx.Row) (*entity.RateSnapshot, error) {
	var s entity.RateSnapshot
	err := row.Scan(&s.RateDate, &s.EURToBRL, &s.BRLToEUR, &s.EURToUSD,
		&s.USDToEUR, &s.USDToBRL, &s.BRLToUSD)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewAppError("DB_SCAN", "scan exchange rates", err)
	}
	return &s, nil
}
