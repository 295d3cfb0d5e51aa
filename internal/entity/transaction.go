package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExtractedTransaction is one dated money movement produced by an extraction
// strategy. Amount sign encodes direction: negative is an outflow/debit.
// A nil Amount means the row was emitted with a date and description only and
// is flagged for manual review; extractors never default a missing amount to 0.
type ExtractedTransaction struct {
	Date              string   `json:"date"` // YYYY-MM-DD
	Description       string   `json:"description"`
	Amount            *float64 `json:"amount,omitempty"`
	SuggestedCategory string   `json:"suggested_category"`
}

// Transaction is a persisted movement on a bank account or credit card.
type Transaction struct {
	ID           uuid.UUID       `json:"id"`
	UserID       uuid.UUID       `json:"user_id"`
	AccountID    *uuid.UUID      `json:"account_id,omitempty"`
	CreditCardID *uuid.UUID      `json:"credit_card_id,omitempty"`
	TxDate       time.Time       `json:"tx_date"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"` // signed, account currency
	Currency     string          `json:"currency"`
	Category     string          `json:"category"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Account is a bank account owned by a user.
type Account struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Currency string    `json:"currency"`
	IsActive bool      `json:"is_active"`
}

// CreditCard is a credit card owned by a user.
type CreditCard struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Currency string    `json:"currency"`
	IsActive bool      `json:"is_active"`
}
