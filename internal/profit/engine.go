package profit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dmaraujo/finpipe/internal/currency"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// TransactionStore exposes the aggregate queries the engine fans out.
// Sums are grouped by transaction currency so conversion happens once per
// currency, not per row.
type TransactionStore interface {
	// BankNetByCurrency sums credits minus debits on the user's bank accounts
	// up to and including cutoff. An empty accountIDs means all accounts.
	BankNetByCurrency(ctx context.Context, userID uuid.UUID, cutoff time.Time, accountIDs []uuid.UUID) (map[string]decimal.Decimal, error)
	// CardNetByCurrency sums payments minus purchases on the user's credit
	// cards up to and including cutoff. An empty cardIDs means all cards.
	CardNetByCurrency(ctx context.Context, userID uuid.UUID, cutoff time.Time, cardIDs []uuid.UUID) (map[string]decimal.Decimal, error)
}

// FixedStore exposes the scheduled-but-unposted side of the ledger.
type FixedStore interface {
	UnpaidEntriesDueBy(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]entity.FixedCostEntry, error)
	ActiveIncomes(ctx context.Context, userID uuid.UUID) ([]entity.FixedIncome, error)
}

// Filter narrows the profit base. CreditCardIDs set: only those cards.
// AccountIDs set with no card filter: cards are excluded entirely. Neither
// set: all accounts and all cards.
type Filter struct {
	AccountIDs    []uuid.UUID
	CreditCardIDs []uuid.UUID
}

// includeCards reports whether card activity belongs in the base. Cards ride
// along only when nothing else is filtered or they are filtered explicitly.
func (f Filter) includeCards() bool {
	return len(f.CreditCardIDs) > 0 || len(f.AccountIDs) == 0
}

// Engine computes profit-until-date in a caller-chosen display currency.
type Engine struct {
	txs    TransactionStore
	fixed  FixedStore
	rates  *currency.Service
	conv   *currency.Converter
	logger *slog.Logger
}

func NewEngine(txs TransactionStore, fixed FixedStore, rates *currency.Service, conv *currency.Converter, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{txs: txs, fixed: fixed, rates: rates, conv: conv, logger: logger}
}

// ProfitUntil sums realized bank activity, realized card activity (see
// Filter), unpaid fixed-cost entries due by the cutoff and fixed incomes due
// by the cutoff, all converted into displayCurrency. The four reads run
// concurrently; any failed read fails the whole computation rather than
// skewing the total.
func (e *Engine) ProfitUntil(ctx context.Context, userID uuid.UUID, cutoff time.Time, displayCurrency string, f Filter) (*entity.ProfitResult, error) {
	var (
		bankNet map[string]decimal.Decimal
		cardNet map[string]decimal.Decimal
		entries []entity.FixedCostEntry
		incomes []entity.FixedIncome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bankNet, err = e.txs.BankNetByCurrency(gctx, userID, cutoff, f.AccountIDs)
		return err
	})
	if f.includeCards() {
		g.Go(func() error {
			var err error
			cardNet, err = e.txs.CardNetByCurrency(gctx, userID, cutoff, f.CreditCardIDs)
			return err
		})
	}
	g.Go(func() error {
		var err error
		entries, err = e.fixed.UnpaidEntriesDueBy(gctx, userID, cutoff)
		return err
	})
	g.Go(func() error {
		var err error
		incomes, err = e.fixed.ActiveIncomes(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := e.rates.SnapshotFor(ctx, cutoff)
	total := decimal.Zero
	for cur, net := range bankNet {
		total = total.Add(e.conv.Convert(net, cur, displayCurrency, snap))
	}
	for cur, net := range cardNet {
		total = total.Add(e.conv.Convert(net, cur, displayCurrency, snap))
	}
	for _, en := range entries {
		total = total.Sub(e.conv.Convert(en.EffectiveAmount(), en.Currency, displayCurrency, snap))
	}
	for _, inc := range incomes {
		if !incomeDue(inc, cutoff) {
			continue
		}
		total = total.Add(e.conv.Convert(inc.Amount, inc.Currency, displayCurrency, snap))
	}

	e.logger.Debug("profit.computed",
		"user_id", userID,
		"cutoff", cutoff.Format("2006-01-02"),
		"currency", displayCurrency,
		"profit", total.StringFixed(2))
	return &entity.ProfitResult{Profit: total.Round(2), Currency: displayCurrency}, nil
}

// incomeDue decides whether an income counts for the cutoff. An explicitly
// tracked next_pay_date wins; otherwise the recurrence is inferred from the
// billing period. Weekly is deliberately permissive: due as soon as the later
// of month start and income start has been reached.
func incomeDue(inc entity.FixedIncome, cutoff time.Time) bool {
	if inc.NextPayDate != nil {
		return !inc.NextPayDate.After(cutoff)
	}
	if inc.StartDate != nil && inc.StartDate.After(cutoff) {
		return false
	}
	monthStart := time.Date(cutoff.Year(), cutoff.Month(), 1, 0, 0, 0, 0, cutoff.Location())
	if inc.EndDate != nil && inc.EndDate.Before(monthStart) {
		return false
	}

	switch inc.BillingPeriod {
	case entity.BillingMonthly:
		day := 1
		if inc.PayDay != nil {
			day = clampDay(cutoff.Year(), cutoff.Month(), *inc.PayDay)
		}
		payDate := time.Date(cutoff.Year(), cutoff.Month(), day, 0, 0, 0, 0, cutoff.Location())
		return !payDate.After(cutoff)
	case entity.BillingYearly:
		if inc.StartDate == nil {
			return false
		}
		anniv := time.Date(cutoff.Year(), inc.StartDate.Month(),
			clampDay(cutoff.Year(), inc.StartDate.Month(), inc.StartDate.Day()),
			0, 0, 0, 0, cutoff.Location())
		return !anniv.After(cutoff)
	case entity.BillingWeekly:
		base := monthStart
		if inc.StartDate != nil && inc.StartDate.After(base) {
			base = *inc.StartDate
		}
		return !base.After(cutoff)
	}
	return false
}

// clampDay keeps a pay day inside the month (31 in February becomes 28/29).
func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}
