package repasse

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/entity"
)

var hundred = decimal.NewFromInt(100)

// ValidateRule checks the write-time invariants of a payout rule: percentage
// within 0..100, payout day a real day of month, shares summing to 100.
func ValidateRule(rule entity.RepasseRule) error {
	if rule.Percentage.IsNegative() || rule.Percentage.GreaterThan(hundred) {
		return common.NewAppError("INVALID_PERCENTAGE", "payout percentage must be within 0..100", common.ErrValidation)
	}
	if rule.PayoutDay < 1 || rule.PayoutDay > 31 {
		return common.NewAppError("INVALID_PAYOUT_DAY", "payout day must be within 1..31", common.ErrValidation)
	}
	return ValidateTargets(rule.Targets)
}

// ValidateTargets enforces the write-time invariant that target shares sum
// to exactly 100 whenever targets are present.
func ValidateTargets(targets []entity.RepasseTarget) error {
	if len(targets) == 0 {
		return nil
	}
	sum := decimal.Zero
	for _, t := range targets {
		if t.SharePercent.IsNegative() {
			return common.NewAppError("INVALID_SHARE", "target share must not be negative", common.ErrValidation)
		}
		sum = sum.Add(t.SharePercent)
	}
	if !sum.Equal(hundred) {
		return common.NewAppError("INVALID_SHARE", "target shares must sum to 100", common.ErrValidation)
	}
	return nil
}

// Execute records a payout for one rule. The requested amount is capped at
// the currently available profit, split across the rule's targets by share
// percent, and converted into each target account's native currency. One
// execution row is written per target.
func (s *Service) Execute(ctx context.Context, userID, ruleID uuid.UUID, requested decimal.Decimal, displayCurrency string, ref time.Time) ([]entity.RepasseExecution, error) {
	rule, err := s.rules.RuleByID(ctx, userID, ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil || !rule.IsActive {
		return nil, common.NewAppError("RULE_NOT_FOUND", "active payout rule not found", common.ErrNotFound)
	}
	if len(rule.Targets) == 0 {
		return nil, common.NewAppError("NO_TARGETS", "payout rule has no target accounts", common.ErrInvalidInput)
	}
	if err := ValidateTargets(rule.Targets); err != nil {
		return nil, err
	}
	if !requested.IsPositive() {
		return nil, common.NewAppError("INVALID_AMOUNT", "payout amount must be positive", common.ErrInvalidInput)
	}

	fc, err := s.forecastRule(ctx, userID, *rule, ref, displayCurrency)
	if err != nil {
		return nil, err
	}
	capped := requested
	if capped.GreaterThan(fc.Available) {
		capped = fc.Available
	}
	if !capped.IsPositive() {
		return nil, common.NewAppError("NOTHING_AVAILABLE", "no profit available for payout", common.ErrInvalidInput)
	}

	snap := s.rates.SnapshotFor(ctx, ref)
	execs := make([]entity.RepasseExecution, 0, len(rule.Targets))
	for _, t := range rule.Targets {
		account, err := s.accounts.AccountByID(ctx, userID, t.AccountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, common.NewAppError("TARGET_NOT_FOUND", "target account not found", common.ErrNotFound)
		}
		share := capped.Mul(t.SharePercent).Div(hundred).Round(2)
		execs = append(execs, entity.RepasseExecution{
			ID:            uuid.New(),
			RuleID:        rule.ID,
			ExecutionDate: fc.Horizon,
			Amount:        s.conv.Convert(share, displayCurrency, account.Currency, snap),
			Currency:      account.Currency,
			AccountID:     account.ID,
		})
	}
	if err := s.rules.RecordExecutions(ctx, execs); err != nil {
		return nil, err
	}

	s.logger.Info("repasse.executed",
		"rule_id", rule.ID,
		"horizon", fc.Horizon.Format("2006-01-02"),
		"requested", requested.StringFixed(2),
		"paid", capped.StringFixed(2),
		"legs", len(execs))
	return execs, nil
}
