package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RepasseRule is a scheduled percentage payout of computed profit from a set
// of source accounts/cards to one or more target accounts.
type RepasseRule struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Name        string          `json:"name"`
	Percentage  decimal.Decimal `json:"percentage"` // 0..100
	PayoutDay   int             `json:"payout_day"` // 1..31
	IsActive    bool            `json:"is_active"`
	IsRecurring bool            `json:"is_recurring"`
	Targets     []RepasseTarget `json:"targets"`
	Sources     []RepasseSource `json:"sources"`
}

// RepasseTarget receives a share of the payout, in the target account's
// native currency. Shares must sum to 100 whenever targets are present.
type RepasseTarget struct {
	AccountID    uuid.UUID       `json:"account_id"`
	SharePercent decimal.Decimal `json:"share_percent"`
}

// RepasseSource narrows the profit base to one account or card. An empty
// source list means every active account of the user.
type RepasseSource struct {
	AccountID    *uuid.UUID `json:"account_id,omitempty"`
	CreditCardID *uuid.UUID `json:"credit_card_id,omitempty"`
}

// RepasseExecution is one recorded payout leg, per target account.
type RepasseExecution struct {
	ID            uuid.UUID       `json:"id"`
	RuleID        uuid.UUID       `json:"rule_id"`
	ExecutionDate time.Time       `json:"execution_date"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	AccountID     uuid.UUID       `json:"account_id"`
}

// RepasseForecast is the derived view for one active rule.
type RepasseForecast struct {
	RuleID     uuid.UUID       `json:"rule_id"`
	RuleName   string          `json:"rule_name"`
	Horizon    time.Time       `json:"horizon"`
	BaseProfit decimal.Decimal `json:"base_profit"`
	Executed   decimal.Decimal `json:"executed"`
	Available  decimal.Decimal `json:"available"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
}

// ProfitResult is a derived, never-persisted profit figure.
type ProfitResult struct {
	Profit   decimal.Decimal `json:"profit"`
	Currency string          `json:"currency"`
}
