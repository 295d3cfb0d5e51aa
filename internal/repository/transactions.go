package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// TransactionRepository persists and aggregates transactions.
type TransactionRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewTransactionRepository(pool *pgxpool.Pool, logger *slog.Logger) *TransactionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionRepository{pool: pool, logger: logger}
}

// InsertBatch stores the given transactions in one round trip.
func (r *TransactionRepository) InsertBatch(ctx context.Context, txs []entity.Transaction) error {
	if len(txs) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range txs {
		batch.Queue(`
			INSERT INTO transactions (id, user_id, account_id, credit_card_id, tx_date, description, amount, currency, category)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			t.ID, t.UserID, t.AccountID, t.CreditCardID, t.TxDate, t.Description, t.Amount, t.Currency, t.Category)
	}
	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range txs {
		if _, err := br.Exec(); err != nil {
			return common.NewAppError("DB_INSERT", "insert transactions", err)
		}
	}
	return nil
}

// ListByUser returns the user's transactions up to and including cutoff,
// newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]entity.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, account_id, credit_card_id, tx_date, description, amount, currency, category, created_at
		FROM transactions
		WHERE user_id = $1 AND tx_date <= $2
		ORDER BY tx_date DESC, created_at DESC`,
		userID, cutoff)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list transactions", err)
	}
	defer rows.Close()

	var out []entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.AccountID, &t.CreditCardID, &t.TxDate,
			&t.Description, &t.Amount, &t.Currency, &t.Category, &t.CreatedAt); err != nil {
			return nil, common.NewAppError("DB_SCAN", "scan transaction", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// BankNetByCurrency sums signed bank-account amounts per currency up to and
// including cutoff. An empty accountIDs covers every account of the user.
func (r *TransactionRepository) BankNetByCurrency(ctx context.Context, userID uuid.UUID, cutoff time.Time, accountIDs []uuid.UUID) (map[string]decimal.Decimal, error) {
	query := `
		SELECT currency, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND tx_date <= $2 AND account_id IS NOT NULL`
	args := []any{userID, cutoff}
	if len(accountIDs) > 0 {
		query += ` AND account_id = ANY($3)`
		args = append(args, accountIDs)
	}
	query += ` GROUP BY currency`
	return r.netByCurrency(ctx, query, args)
}

// CardNetByCurrency sums signed credit-card amounts per currency up to and
// including cutoff. An empty cardIDs covers every card of the user.
func (r *TransactionRepository) CardNetByCurrency(ctx context.Context, userID uuid.UUID, cutoff time.Time, cardIDs []uuid.UUID) (map[string]decimal.Decimal, error) {
	query := `
		SELECT currency, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND tx_date <= $2 AND credit_card_id IS NOT NULL`
	args := []any{userID, cutoff}
	if len(cardIDs) > 0 {
		query += ` AND credit_card_id = ANY($3)`
		args = append(args, cardIDs)
	}
	query += ` GROUP BY currency`
	return r.netByCurrency(ctx, query, args)
}

func (r *TransactionRepository) netByCurrency(ctx context.Context, query string, args []any) (map[string]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", fmt.Sprintf("aggregate transactions: %v", err), common.ErrDatabase)
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var cur string
		var sum decimal.Decimal
		if err := rows.Scan(&cur, &sum); err != nil {
			return nil, common.NewAppError("DB_SCAN", "scan aggregate row", err)
		}
		out[cur] = sum
	}
	return out, rows.Err()
}
