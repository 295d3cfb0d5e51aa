package profit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmaraujo/finpipe/internal/currency"
	"github.com/dmaraujo/finpipe/internal/entity"
)

type mockTxStore struct{ mock.Mock }

func (m *mockTxStore) BankNetByCurrency(ctx context.Context, userID uuid.UUID, cutoff time.Time, accountIDs []uuid.UUID) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, userID, cutoff, accountIDs)
	net, _ := args.Get(0).(map[string]decimal.Decimal)
	return net, args.Error(1)
}

func (m *mockTxStore) CardNetByCurrency(ctx context.Context, userID uuid.UUID, cutoff time.Time, cardIDs []uuid.UUID) (map[string]decimal.Decimal, error) {
	args := m.Called(ctx, userID, cutoff, cardIDs)
	net, _ := args.Get(0).(map[string]decimal.Decimal)
	return net, args.Error(1)
}

type mockFixedStore struct{ mock.Mock }

func (m *mockFixedStore) UnpaidEntriesDueBy(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]entity.FixedCostEntry, error) {
	args := m.Called(ctx, userID, cutoff)
	entries, _ := args.Get(0).([]entity.FixedCostEntry)
	return entries, args.Error(1)
}

func (m *mockFixedStore) ActiveIncomes(ctx context.Context, userID uuid.UUID) ([]entity.FixedIncome, error) {
	args := m.Called(ctx, userID)
	incomes, _ := args.Get(0).([]entity.FixedIncome)
	return incomes, args.Error(1)
}

type nilRateStore struct{}

func (nilRateStore) SnapshotOn(context.Context, time.Time) (*entity.RateSnapshot, error) {
	return nil, nil
}

func (nilRateStore) LatestSnapshot(context.Context, time.Time) (*entity.RateSnapshot, error) {
	return nil, nil
}

var (
	testUser   = uuid.New()
	testCutoff = time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
)

func newTestEngine(txs *mockTxStore, fixed *mockFixedStore) *Engine {
	conv := currency.NewConverter(0, nil)
	rates := currency.NewService(nilRateStore{}, conv, nil)
	return NewEngine(txs, fixed, rates, conv, nil)
}

func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestProfitUntilSumsBankAndCards(t *testing.T) {
	txs := &mockTxStore{}
	fixed := &mockFixedStore{}
	txs.On("BankNetByCurrency", mock.Anything, testUser, testCutoff, []uuid.UUID(nil)).
		Return(map[string]decimal.Decimal{"EUR": dec("1000.00")}, nil)
	txs.On("CardNetByCurrency", mock.Anything, testUser, testCutoff, []uuid.UUID(nil)).
		Return(map[string]decimal.Decimal{"EUR": dec("-200.00")}, nil)
	fixed.On("UnpaidEntriesDueBy", mock.Anything, testUser, testCutoff).Return(nil, nil)
	fixed.On("ActiveIncomes", mock.Anything, testUser).Return(nil, nil)

	res, err := newTestEngine(txs, fixed).ProfitUntil(context.Background(), testUser, testCutoff, "EUR", Filter{})
	require.NoError(t, err)
	assert.True(t, res.Profit.Equal(dec("800.00")), "got %s", res.Profit)
	assert.Equal(t, "EUR", res.Currency)
}

func TestProfitUntilAccountFilterExcludesCards(t *testing.T) {
	accountID := uuid.New()
	txs := &mockTxStore{}
	fixed := &mockFixedStore{}
	txs.On("BankNetByCurrency", mock.Anything, testUser, testCutoff, []uuid.UUID{accountID}).
		Return(map[string]decimal.Decimal{"EUR": dec("500.00")}, nil)
	fixed.On("UnpaidEntriesDueBy", mock.Anything, testUser, testCutoff).Return(nil, nil)
	fixed.On("ActiveIncomes", mock.Anything, testUser).Return(nil, nil)

	res, err := newTestEngine(txs, fixed).ProfitUntil(context.Background(), testUser, testCutoff, "EUR",
		Filter{AccountIDs: []uuid.UUID{accountID}})
	require.NoError(t, err)
	assert.True(t, res.Profit.Equal(dec("500.00")), "got %s", res.Profit)
	txs.AssertNotCalled(t, "CardNetByCurrency", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProfitUntilExplicitCardFilterIncludesCards(t *testing.T) {
	accountID := uuid.New()
	cardID := uuid.New()
	txs := &mockTxStore{}
	fixed := &mockFixedStore{}
	txs.On("BankNetByCurrency", mock.Anything, testUser, testCutoff, []uuid.UUID{accountID}).
		Return(map[string]decimal.Decimal{"EUR": dec("500.00")}, nil)
	txs.On("CardNetByCurrency", mock.Anything, testUser, testCutoff, []uuid.UUID{cardID}).
		Return(map[string]decimal.Decimal{"EUR": dec("-120.00")}, nil)
	fixed.On("UnpaidEntriesDueBy", mock.Anything, testUser, testCutoff).Return(nil, nil)
	fixed.On("ActiveIncomes", mock.Anything, testUser).Return(nil, nil)

	res, err := newTestEngine(txs, fixed).ProfitUntil(context.Background(), testUser, testCutoff, "EUR",
		Filter{AccountIDs: []uuid.UUID{accountID}, CreditCardIDs: []uuid.UUID{cardID}})
	require.NoError(t, err)
	assert.True(t, res.Profit.Equal(dec("380.00")), "got %s", res.Profit)
}

func TestProfitUntilSubtractsUnpaidFixedCosts(t *testing.T) {
	actual := dec("110.00")
	txs := &mockTxStore{}
	fixed := &mockFixedStore{}
	txs.On("BankNetByCurrency", mock.Anything, testUser, testCutoff, []uuid.UUID(nil)).
		Return(map[string]decimal.Decimal{"EUR": dec("1000.00")}, nil)
	txs.On("CardNetByCurrency", mock.Anything, testUser, testCutoff, []uuid.UUID(nil)).Return(nil, nil)
	fixed.On("UnpaidEntriesDueBy", mock.Anything, testUser, testCutoff).Return([]entity.FixedCostEntry{
		{Amount: dec("100.00"), ActualAmount: &actual, Currency: "EUR"},
		{Amount: dec("50.00"), Currency: "EUR"},
	}, nil)
	fixed.On("ActiveIncomes", mock.Anything, testUser).Return(nil, nil)

	res, err := newTestEngine(txs, fixed).ProfitUntil(context.Background(), testUser, testCutoff, "EUR", Filter{})
	require.NoError(t, err)
	// the tracked actual amount wins over the planned one
	assert.True(t, res.Profit.Equal(dec("840.00")), "got %s", res.Profit)
}

func TestProfitUntilAddsDueIncomes(t *testing.T) {
	payDay10 := 10
	payDay20 := 20
	txs := &mockTxStore{}
	fixed := &mockFixedStore{}
	txs.On("BankNetByCurrency", mock.Anything, testUser, testCutoff, []uuid.UUID(nil)).
		Return(map[string]decimal.Decimal{"EUR": dec("100.00")}, nil)
	txs.On("CardNetByCurrency", mock.Anything, testUser, testCutoff, []uuid.UUID(nil)).Return(nil, nil)
	fixed.On("UnpaidEntriesDueBy", mock.Anything, testUser, testCutoff).Return(nil, nil)
	fixed.On("ActiveIncomes", mock.Anything, testUser).Return([]entity.FixedIncome{
		{Amount: dec("2000.00"), Currency: "EUR", BillingPeriod: entity.BillingMonthly, PayDay: &payDay10},
		{Amount: dec("999.00"), Currency: "EUR", BillingPeriod: entity.BillingMonthly, PayDay: &payDay20},
	}, nil)

	res, err := newTestEngine(txs, fixed).ProfitUntil(context.Background(), testUser, testCutoff, "EUR", Filter{})
	require.NoError(t, err)
	// cutoff is the 15th: the day-10 salary counts, the day-20 one does not
	assert.True(t, res.Profit.Equal(dec("2100.00")), "got %s", res.Profit)
}

func TestProfitUntilFailsWhenAReadFails(t *testing.T) {
	txs := &mockTxStore{}
	fixed := &mockFixedStore{}
	txs.On("BankNetByCurrency", mock.Anything, testUser, testCutoff, []uuid.UUID(nil)).
		Return(nil, assert.AnError)
	txs.On("CardNetByCurrency", mock.Anything, testUser, testCutoff, []uuid.UUID(nil)).Return(nil, nil).Maybe()
	fixed.On("UnpaidEntriesDueBy", mock.Anything, testUser, testCutoff).Return(nil, nil).Maybe()
	fixed.On("ActiveIncomes", mock.Anything, testUser).Return(nil, nil).Maybe()

	res, err := newTestEngine(txs, fixed).ProfitUntil(context.Background(), testUser, testCutoff, "EUR", Filter{})
	assert.Error(t, err)
	assert.Nil(t, res)
}

func ptrTime(t time.Time) *time.Time { return &t }

func TestIncomeDue(t *testing.T) {
	cutoff := time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)
	payDay31 := 31
	payDay28 := 28

	tests := []struct {
		name string
		inc  entity.FixedIncome
		want bool
	}{
		{
			"next pay date reached",
			entity.FixedIncome{NextPayDate: ptrTime(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC))},
			true,
		},
		{
			"next pay date ahead",
			entity.FixedIncome{NextPayDate: ptrTime(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC))},
			false,
		},
		{
			"next pay date wins over period",
			entity.FixedIncome{
				BillingPeriod: entity.BillingMonthly,
				PayDay:        &payDay28,
				NextPayDate:   ptrTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
			},
			false,
		},
		{
			"monthly pay day clamped into february",
			entity.FixedIncome{BillingPeriod: entity.BillingMonthly, PayDay: &payDay31},
			false,
		},
		{
			"monthly without pay day due from month start",
			entity.FixedIncome{BillingPeriod: entity.BillingMonthly},
			true,
		},
		{
			"start date ahead of cutoff",
			entity.FixedIncome{
				BillingPeriod: entity.BillingMonthly,
				StartDate:     ptrTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
			},
			false,
		},
		{
			"ended before the cutoff month",
			entity.FixedIncome{
				BillingPeriod: entity.BillingMonthly,
				EndDate:       ptrTime(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)),
			},
			false,
		},
		{
			"yearly anniversary reached",
			entity.FixedIncome{
				BillingPeriod: entity.BillingYearly,
				StartDate:     ptrTime(time.Date(2020, 2, 10, 0, 0, 0, 0, time.UTC)),
			},
			true,
		},
		{
			"yearly anniversary ahead",
			entity.FixedIncome{
				BillingPeriod: entity.BillingYearly,
				StartDate:     ptrTime(time.Date(2020, 11, 5, 0, 0, 0, 0, time.UTC)),
			},
			false,
		},
		{
			"yearly without start date never due",
			entity.FixedIncome{BillingPeriod: entity.BillingYearly},
			false,
		},
		{
			"weekly due within month",
			entity.FixedIncome{BillingPeriod: entity.BillingWeekly},
			true,
		},
		{
			"weekly waits for start date",
			entity.FixedIncome{
				BillingPeriod: entity.BillingWeekly,
				StartDate:     ptrTime(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)),
			},
			false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, incomeDue(tc.inc, cutoff))
		})
	}
}

func TestClampDay(t *testing.T) {
	assert.Equal(t, 29, clampDay(2024, time.February, 31))
	assert.Equal(t, 28, clampDay(2023, time.February, 31))
	assert.Equal(t, 15, clampDay(2024, time.June, 15))
	assert.Equal(t, 1, clampDay(2024, time.June, 0))
}
