package repasse

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmaraujo/finpipe/internal/currency"
	"github.com/dmaraujo/finpipe/internal/entity"
	"github.com/dmaraujo/finpipe/internal/profit"
)

// RuleStore is the persistence surface for payout rules and their history.
type RuleStore interface {
	ActiveRules(ctx context.Context, userID uuid.UUID) ([]entity.RepasseRule, error)
	RuleByID(ctx context.Context, userID, ruleID uuid.UUID) (*entity.RepasseRule, error)
	// ExecutionsOn returns executions recorded for the rule on exactly the
	// given horizon date.
	ExecutionsOn(ctx context.Context, ruleID uuid.UUID, horizon time.Time) ([]entity.RepasseExecution, error)
	RecordExecutions(ctx context.Context, execs []entity.RepasseExecution) error
}

// AccountStore resolves target accounts, needed for their native currency.
type AccountStore interface {
	AccountByID(ctx context.Context, userID, accountID uuid.UUID) (*entity.Account, error)
}

// Service computes payout forecasts and records executions.
type Service struct {
	rules    RuleStore
	accounts AccountStore
	profit   *profit.Engine
	rates    *currency.Service
	conv     *currency.Converter
	logger   *slog.Logger
}

func NewService(rules RuleStore, accounts AccountStore, pe *profit.Engine, rates *currency.Service, conv *currency.Converter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{rules: rules, accounts: accounts, profit: pe, rates: rates, conv: conv, logger: logger}
}

// Horizon returns the next calendar date matching payoutDay strictly after
// ref: this month when the day is still ahead, otherwise next month. The day
// is clamped to the target month's length.
func Horizon(payoutDay int, ref time.Time) time.Time {
	year, month := ref.Year(), ref.Month()
	if payoutDay <= ref.Day() {
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, ref.Location()).Day()
	day := payoutDay
	if day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, ref.Location())
}

// filterFromSources narrows the profit base to the rule's configured sources.
// No sources means all active accounts (and, per the profit engine's default,
// all cards).
func filterFromSources(sources []entity.RepasseSource) profit.Filter {
	var f profit.Filter
	for _, s := range sources {
		if s.AccountID != nil {
			f.AccountIDs = append(f.AccountIDs, *s.AccountID)
		}
		if s.CreditCardID != nil {
			f.CreditCardIDs = append(f.CreditCardIDs, *s.CreditCardID)
		}
	}
	return f
}

// Forecast computes the payout view for every active rule of the user, in
// displayCurrency, as of ref.
func (s *Service) Forecast(ctx context.Context, userID uuid.UUID, ref time.Time, displayCurrency string) ([]entity.RepasseForecast, error) {
	rules, err := s.rules.ActiveRules(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]entity.RepasseForecast, 0, len(rules))
	for _, rule := range rules {
		fc, err := s.forecastRule(ctx, userID, rule, ref, displayCurrency)
		if err != nil {
			return nil, err
		}
		out = append(out, *fc)
	}
	return out, nil
}

func (s *Service) forecastRule(ctx context.Context, userID uuid.UUID, rule entity.RepasseRule, ref time.Time, displayCurrency string) (*entity.RepasseForecast, error) {
	horizon := Horizon(rule.PayoutDay, ref)

	base, err := s.profit.ProfitUntil(ctx, userID, ref, displayCurrency, filterFromSources(rule.Sources))
	if err != nil {
		return nil, err
	}
	executed, err := s.executedOn(ctx, rule.ID, horizon, displayCurrency, ref)
	if err != nil {
		return nil, err
	}

	available := base.Profit.Sub(executed)
	if available.IsNegative() {
		available = decimal.Zero
	}
	amount := available.Mul(rule.Percentage).Div(decimal.NewFromInt(100)).Round(2)

	s.logger.Debug("repasse.forecast",
		"rule_id", rule.ID,
		"horizon", horizon.Format("2006-01-02"),
		"base", base.Profit.StringFixed(2),
		"executed", executed.StringFixed(2),
		"amount", amount.StringFixed(2))

	return &entity.RepasseForecast{
		RuleID:     rule.ID,
		RuleName:   rule.Name,
		Horizon:    horizon,
		BaseProfit: base.Profit,
		Executed:   executed,
		Available:  available,
		Amount:     amount,
		Currency:   displayCurrency,
	}, nil
}

// executedOn sums the executions already recorded for the horizon date,
// converted into displayCurrency with the rates in effect at ref.
func (s *Service) executedOn(ctx context.Context, ruleID uuid.UUID, horizon time.Time, displayCurrency string, ref time.Time) (decimal.Decimal, error) {
	execs, err := s.rules.ExecutionsOn(ctx, ruleID, horizon)
	if err != nil {
		return decimal.Decimal{}, err
	}
	snap := s.rates.SnapshotFor(ctx, ref)
	total := decimal.Zero
	for _, ex := range execs {
		total = total.Add(s.conv.Convert(ex.Amount, ex.Currency, displayCurrency, snap))
	}
	return total, nil
}
