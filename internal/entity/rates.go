package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supported currencies. The conversion engine only knows these three;
// anything else is converted through the identity rate.
const (
	CurrencyEUR = "EUR"
	CurrencyBRL = "BRL"
	CurrencyUSD = "USD"
)

// RateSnapshot is one day's stored exchange rates. Any cross-rate may be nil;
// the conversion engine derives missing rates from reciprocals or through EUR.
type RateSnapshot struct {
	RateDate time.Time        `json:"rate_date"`
	EURToBRL *decimal.Decimal `json:"eur_to_brl,omitempty"`
	BRLToEUR *decimal.Decimal `json:"brl_to_eur,omitempty"`
	EURToUSD *decimal.Decimal `json:"eur_to_usd,omitempty"`
	USDToEUR *decimal.Decimal `json:"usd_to_eur,omitempty"`
	USDToBRL *decimal.Decimal `json:"usd_to_brl,omitempty"`
	BRLToUSD *decimal.Decimal `json:"brl_to_usd,omitempty"`
}
