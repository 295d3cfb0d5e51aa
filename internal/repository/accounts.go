package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// AccountRepository reads accounts and credit cards.
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// AccountByID returns one account of the user, or nil when absent.
func (r *AccountRepository) AccountByID(ctx context.Context, userID, accountID uuid.UUID) (*entity.Account, error) {
	var a entity.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, currency, is_active
		FROM accounts
		WHERE id = $1 AND user_id = $2`,
		accountID, userID).
		Scan(&a.ID, &a.UserID, &a.Name, &a.Currency, &a.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewAppError("DB_SCAN", "scan account", err)
	}
	return &a, nil
}

// ActiveAccounts returns the user's active accounts.
func (r *AccountRepository) ActiveAccounts(ctx context.Context, userID uuid.UUID) ([]entity.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, currency, is_active
		FROM accounts
		WHERE user_id = $1 AND is_active
		ORDER BY name`,
		userID)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list accounts", err)
	}
	defer rows.Close()

	var out []entity.Account
	for rows.Next() {
		var a entity.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Currency, &a.IsActive); err != nil {
			return nil, common.NewAppError("DB_SCAN", "scan account", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
