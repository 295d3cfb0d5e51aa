package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// RepasseRepository stores payout rules and their execution history.
type RepasseRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewRepasseRepository(pool *pgxpool.Pool, logger *slog.Logger) *RepasseRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RepasseRepository{pool: pool, logger: logger}
}

// CreateRule writes a rule with its targets and sources atomically.
func (r *RepasseRepository) CreateRule(ctx context.Context, rule *entity.RepasseRule) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.NewAppError("DB_TX", "begin transaction", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO repasse_rules (id, user_id, name, percentage, payout_day, is_active, is_recurring)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rule.ID, rule.UserID, rule.Name, rule.Percentage,
		rule.PayoutDay, rule.IsActive, rule.IsRecurring); err != nil {
		return common.NewAppError("DB_INSERT", "insert repasse rule", err)
	}
	for _, t := range rule.Targets {
		if _, err := tx.Exec(ctx, `
			INSERT INTO repasse_targets (rule_id, account_id, share_percent)
			VALUES ($1, $2, $3)`,
			rule.ID, t.AccountID, t.SharePercent); err != nil {
			return common.NewAppError("DB_INSERT", "insert repasse target", err)
		}
	}
	for _, src := range rule.Sources {
		if _, err := tx.Exec(ctx, `
			INSERT INTO repasse_sources (rule_id, account_id, credit_card_id)
			VALUES ($1, $2, $3)`,
			rule.ID, src.AccountID, src.CreditCardID); err != nil {
			return common.NewAppError("DB_INSERT", "insert repasse source", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return common.NewAppError("DB_TX", "commit transaction", err)
	}
	r.logger.Info("repasse.rule_created", "rule_id", rule.ID, "targets", len(rule.Targets))
	return nil
}

// ActiveRules returns the user's active rules with targets and sources
// attached.
func (r *RepasseRepository) ActiveRules(ctx context.Context, userID uuid.UUID) ([]entity.RepasseRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, percentage, payout_day, is_active, is_recurring
		FROM repasse_rules
		WHERE user_id = $1 AND is_active
		ORDER BY payout_day, name`,
		userID)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list repasse rules", err)
	}
	defer rows.Close()

	var out []entity.RepasseRule
	for rows.Next() {
		var rule entity.RepasseRule
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.Name, &rule.Percentage,
			&rule.PayoutDay, &rule.IsActive, &rule.IsRecurring); err != nil {
			return nil, common.NewAppError("DB_SCAN", "scan repasse rule", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.attachDetails(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RuleByID returns one rule of the user, or nil when absent.
func (r *RepasseRepository) RuleByID(ctx context.Context, userID, ruleID uuid.UUID) (*entity.RepasseRule, error) {
	var rule entity.RepasseRule
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, percentage, payout_day, is_active, is_recurring
		FROM repasse_rules
		WHERE id = $1 AND user_id = $2`,
		ruleID, userID).
		Scan(&rule.ID, &rule.UserID, &rule.Name, &rule.Percentage,
			&rule.PayoutDay, &rule.IsActive, &rule.IsRecurring)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, common.NewAppError("DB_SCAN", "scan repasse rule", err)
	}
	if err := r.attachDetails(ctx, &rule); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *RepasseRepository) attachDetails(ctx context.Context, rule *entity.RepasseRule) error {
	rows, err := r.pool.Query(ctx, `
		SELECT account_id, share_percent
		FROM repasse_targets
		WHERE rule_id = $1
		ORDER BY share_percent DESC`,
		rule.ID)
	if err != nil {
		return common.NewAppError("DB_QUERY", "list repasse targets", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t entity.RepasseTarget
		if err := rows.Scan(&t.AccountID, &t.SharePercent); err != nil {
			return common.NewAppError("DB_SCAN", "scan repasse target", err)
		}
		rule.Targets = append(rule.Targets, t)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	srcRows, err := r.pool.Query(ctx, `
		SELECT account_id, credit_card_id
		FROM repasse_sources
		WHERE rule_id = $1`,
		rule.ID)
	if err != nil {
		return common.NewAppError("DB_QUERY", "list repasse sources", err)
	}
	defer srcRows.Close()
	for srcRows.Next() {
		var s entity.RepasseSource
		if err := srcRows.Scan(&s.AccountID, &s.CreditCardID); err != nil {
			return common.NewAppError("DB_SCAN", "scan repasse source", err)
		}
		rule.Sources = append(rule.Sources, s)
	}
	return srcRows.Err()
}

// ExecutionsOn returns executions recorded for the rule on exactly the given
// horizon date.
func (r *RepasseRepository) ExecutionsOn(ctx context.Context, ruleID uuid.UUID, horizon time.Time) ([]entity.RepasseExecution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, rule_id, execution_date, amount, currency, account_id
		FROM repasse_executions
		WHERE rule_id = $1 AND execution_date = $2`,
		ruleID, horizon)
	if err != nil {
		return nil, common.NewAppError("DB_QUERY", "list repasse executions", err)
	}
	defer rows.Close()

	var out []entity.RepasseExecution
	for rows.Next() {
		var ex entity.RepasseExecution
		if err := rows.Scan(&ex.ID, &ex.RuleID, &ex.ExecutionDate, &ex.Amount,
			&ex.Currency, &ex.AccountID); err != nil {
			return nil, common.NewAppError("DB_SCAN", "scan repasse execution", err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// RecordExecutions writes all payout legs atomically.
func (r *RepasseRepository) RecordExecutions(ctx context.Context, execs []entity.RepasseExecution) error {
	if len(execs) == 0 {
		return nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.NewAppError("DB_TX", "begin transaction", err)
	}
	defer tx.Rollback(ctx)

	for _, ex := range execs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO repasse_executions (id, rule_id, execution_date, amount, currency, account_id)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			ex.ID, ex.RuleID, ex.ExecutionDate, ex.Amount, ex.Currency, ex.AccountID); err != nil {
			return common.NewAppError("DB_INSERT", "insert repasse execution", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return common.NewAppError("DB_TX", "commit transaction", err)
	}
	r.logger.Info("repasse.executions_recorded", "count", len(execs))
	return nil
}
