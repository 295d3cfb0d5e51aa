package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillingPeriod is the recurrence of a fixed income.
type BillingPeriod string

const (
	BillingMonthly BillingPeriod = "monthly"
	BillingYearly  BillingPeriod = "yearly"
	BillingWeekly  BillingPeriod = "weekly"
)

// FixedCost is a recurring scheduled cost (rent, insurance, ...).
type FixedCost struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Currency string    `json:"currency"`
	IsActive bool      `json:"is_active"`
}

// FixedCostEntry is one scheduled occurrence of a fixed cost. ActualAmount is
// set when the real charge differs from the planned one.
type FixedCostEntry struct {
	ID           uuid.UUID        `json:"id"`
	FixedCostID  uuid.UUID        `json:"fixed_cost_id"`
	DueDate      time.Time        `json:"due_date"`
	Amount       decimal.Decimal  `json:"amount"`
	ActualAmount *decimal.Decimal `json:"actual_amount,omitempty"`
	IsPaid       bool             `json:"is_paid"`
	Currency     string           `json:"currency"`
}

// EffectiveAmount is the actual amount when tracked, else the planned one.
func (e FixedCostEntry) EffectiveAmount() decimal.Decimal {
	if e.ActualAmount != nil {
		return *e.ActualAmount
	}
	return e.Amount
}

// FixedIncome is a recurring scheduled income. NextPayDate, when tracked,
// overrides the recurrence inference from BillingPeriod and the date fields.
type FixedIncome struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	BillingPeriod BillingPeriod   `json:"billing_period"`
	StartDate     *time.Time      `json:"start_date,omitempty"`
	EndDate       *time.Time      `json:"end_date,omitempty"`
	PayDay        *int            `json:"pay_day,omitempty"`
	NextPayDate   *time.Time      `json:"next_pay_date,omitempty"`
	IsActive      bool            `json:"is_active"`
}
