package currency

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/dmaraujo/finpipe/internal/entity"
)

// Converter turns amounts between EUR, BRL and USD using a rate snapshot.
// Missing cross-rates are derived: reciprocal of the inverse first, then a
// bridge through EUR, then the configured EUR/BRL fallback, then identity.
// Conversion never fails; worst case the amount passes through unchanged.
type Converter struct {
	fallbackEURBRL decimal.Decimal
	logger         *slog.Logger
}

func NewConverter(fallbackEURBRL float64, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		fallbackEURBRL: decimal.NewFromFloat(fallbackEURBRL),
		logger:         logger,
	}
}

// Convert returns amount expressed in the target currency, rounded to 2
// decimal places. Same-currency conversion is always the identity, even with
// a nil snapshot.
func (c *Converter) Convert(amount decimal.Decimal, from, to string, snap *entity.RateSnapshot) decimal.Decimal {
	if from == to {
		return amount.Round(2)
	}
	return amount.Mul(c.rate(from, to, snap)).Round(2)
}

func (c *Converter) rate(from, to string, snap *entity.RateSnapshot) decimal.Decimal {
	if r, ok := snapshotRate(from, to, snap); ok {
		return r
	}
	if from != entity.CurrencyEUR && to != entity.CurrencyEUR {
		a, aok := c.legRate(from, entity.CurrencyEUR, snap)
		b, bok := c.legRate(entity.CurrencyEUR, to, snap)
		if aok && bok {
			return a.Mul(b)
		}
	}
	if r, ok := c.fallbackRate(from, to); ok {
		c.logger.Warn("currency.fallback_rate", "from", from, "to", to)
		return r
	}
	c.logger.Warn("currency.identity_rate", "from", from, "to", to)
	return decimal.NewFromInt(1)
}

// legRate resolves one leg of an EUR bridge without further bridging.
func (c *Converter) legRate(from, to string, snap *entity.RateSnapshot) (decimal.Decimal, bool) {
	if r, ok := snapshotRate(from, to, snap); ok {
		return r, true
	}
	return c.fallbackRate(from, to)
}

// snapshotRate reads a stored rate, falling back to the reciprocal of the
// inverse pair when only that side is present.
func snapshotRate(from, to string, snap *entity.RateSnapshot) (decimal.Decimal, bool) {
	if snap == nil {
		return decimal.Decimal{}, false
	}
	if r := directField(from, to, snap); r != nil {
		return *r, true
	}
	if r := directField(to, from, snap); r != nil && !r.IsZero() {
		return decimal.NewFromInt(1).Div(*r), true
	}
	return decimal.Decimal{}, false
}

func directField(from, to string, snap *entity.RateSnapshot) *decimal.Decimal {
	switch from + "/" + to {
	case "EUR/BRL":
		return snap.EURToBRL
	case "BRL/EUR":
		return snap.BRLToEUR
	case "EUR/USD":
		return snap.EURToUSD
	case "USD/EUR":
		return snap.USDToEUR
	case "USD/BRL":
		return snap.USDToBRL
	case "BRL/USD":
		return snap.BRLToUSD
	}
	return nil
}

// fallbackRate covers only the EUR/BRL pair, from configuration.
func (c *Converter) fallbackRate(from, to string) (decimal.Decimal, bool) {
	switch {
	case from == entity.CurrencyEUR && to == entity.CurrencyBRL:
		return c.fallbackEURBRL, true
	case from == entity.CurrencyBRL && to == entity.CurrencyEUR && !c.fallbackEURBRL.IsZero():
		return decimal.NewFromInt(1).Div(c.fallbackEURBRL), true
	}
	return decimal.Decimal{}, false
}
