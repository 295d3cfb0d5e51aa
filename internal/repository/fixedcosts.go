package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// FixedRepository reads scheduled costs and incomes.
type FixedRepository struct {
	pool *pgxpool.Pool
}

func NewFixedRepository(pool *pgxpool.Pool) *FixedRepository {
	return &FixedRepository{pool: pool}
}

// UnpaidEntriesDueBy returns unpaid fixed-cost entries of the user due on or
// before cutoff. Currency comes from the owning fixed cost.
func (r *FixedRepository) UnpaidEntriesDueBy(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]entity.FixedCostEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.fixed_cost_id, e.due_date, e.amount, e.actual_amount, e.is_paid, c.currency
		FROM fixed_cost_entries e
		JOIN fixed_costs c ON c.id = e.fixed_cost_id
		WHERE c.user_id = $1 AND c.is_active AND NOT e.is_paid AND e.due_date <= $2
		ORDER BY e.due_date`,
		userID, cutoff)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list fixed cost entries", err)
	}
	defer rows.Close()

	var out []entity.FixedCostEntry
	for rows.Next() {
		var e entity.FixedCostEntry
		if err := rows.Scan(&e.ID, &e.FixedCostID, &e.DueDate, &e.Amount,
			&e.ActualAmount, &e.IsPaid, &e.Currency); err != nil {
			return nil, common.NewAppError("DB_SCAN", "scan fixed cost entry", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ActiveIncomes returns the user's active fixed incomes.
func (r *FixedRepository) ActiveIncomes(ctx context.Context, userID uuid.UUID) ([]entity.FixedIncome, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, amount, currency, billing_period,
		       start_date, end_date, pay_day, next_pay_date, is_active
		FROM fixed_incomes
		WHERE user_id = $1 AND is_active
		ORDER BY name`,
		userID)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list fixed incomes", err)
	}
	defer rows.Close()

	var out []entity.FixedIncome
	for rows.Next() {
		var in entity.FixedIncome
		if err := rows.Scan(&in.ID, &in.UserID, &in.Name, &in.Amount, &in.Currency,
			&in.BillingPeriod, &in.StartDate, &in.EndDate, &in.PayDay,
			&in.NextPayDate, &in.IsActive); err != nil {
			return nil, common.NewAppError("DB_SCAN", "scan fixed income", err)
		}
		out = append(out, in)
	}
	return out, rows.Err()
}
