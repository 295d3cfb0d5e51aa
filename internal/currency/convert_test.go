package currency

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaraujo/finpipe/internal/entity"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func TestConvertSameCurrencyIsIdentity(t *testing.T) {
	c := NewConverter(0, nil)
	got := c.Convert(d("123.456"), entity.CurrencyEUR, entity.CurrencyEUR, nil)
	assert.True(t, got.Equal(d("123.46")), "got %s", got)
}

func TestConvertDirectRate(t *testing.T) {
	c := NewConverter(0, nil)
	snap := &entity.RateSnapshot{EURToBRL: dp("6.20")}
	got := c.Convert(d("100"), entity.CurrencyEUR, entity.CurrencyBRL, snap)
	assert.True(t, got.Equal(d("620")), "got %s", got)
}

func TestConvertReciprocalOfInverse(t *testing.T) {
	// only EUR->BRL stored; BRL->EUR derives from its reciprocal
	c := NewConverter(0, nil)
	snap := &entity.RateSnapshot{EURToBRL: dp("5.00")}
	got := c.Convert(d("100"), entity.CurrencyBRL, entity.CurrencyEUR, snap)
	assert.True(t, got.Equal(d("20")), "got %s", got)
}

func TestConvertBridgesThroughEUR(t *testing.T) {
	c := NewConverter(0, nil)
	snap := &entity.RateSnapshot{
		EURToBRL: dp("6.00"),
		EURToUSD: dp("1.20"),
	}
	// BRL -> USD = (1/6.00) * 1.20 = 0.20
	got := c.Convert(d("100"), entity.CurrencyBRL, entity.CurrencyUSD, snap)
	assert.True(t, got.Equal(d("20")), "got %s", got)
}

func TestConvertConfiguredFallback(t *testing.T) {
	c := NewConverter(6.50, nil)

	got := c.Convert(d("10"), entity.CurrencyEUR, entity.CurrencyBRL, nil)
	assert.True(t, got.Equal(d("65")), "got %s", got)

	got = c.Convert(d("65"), entity.CurrencyBRL, entity.CurrencyEUR, nil)
	assert.True(t, got.Equal(d("10")), "got %s", got)
}

func TestConvertIdentityLastResort(t *testing.T) {
	// no snapshot, no fallback, non EUR/BRL pair: amount passes through
	c := NewConverter(0, nil)
	got := c.Convert(d("42.00"), entity.CurrencyUSD, entity.CurrencyBRL, nil)
	assert.True(t, got.Equal(d("42")), "got %s", got)
}

func TestConvertRoundsToTwoPlaces(t *testing.T) {
	c := NewConverter(0, nil)
	snap := &entity.RateSnapshot{EURToUSD: dp("1.0856")}
	got := c.Convert(d("10"), entity.CurrencyEUR, entity.CurrencyUSD, snap)
	assert.True(t, got.Equal(d("10.86")), "got %s", got)
}

type stubRateStore struct {
	onDate *entity.RateSnapshot
	latest *entity.RateSnapshot
	err    error
}

func (s *stubRateStore) SnapshotOn(context.Context, time.Time) (*entity.RateSnapshot, error) {
	return s.onDate, s.err
}

func (s *stubRateStore) LatestSnapshot(context.Context, time.Time) (*entity.RateSnapshot, error) {
	return s.latest, s.err
}

func TestServiceSnapshotForPrefersSameDay(t *testing.T) {
	today := &entity.RateSnapshot{EURToBRL: dp("6.10")}
	svc := NewService(&stubRateStore{onDate: today, latest: &entity.RateSnapshot{}}, NewConverter(0, nil), nil)
	got := svc.SnapshotFor(context.Background(), time.Now())
	assert.Same(t, today, got)
}

func TestServiceSnapshotForFallsBackToLatest(t *testing.T) {
	latest := &entity.RateSnapshot{EURToBRL: dp("6.05")}
	svc := NewService(&stubRateStore{latest: latest}, NewConverter(0, nil), nil)
	got := svc.SnapshotFor(context.Background(), time.Now())
	assert.Same(t, latest, got)
}

func TestServiceConvertOnDegradesOnStoreError(t *testing.T) {
	svc := NewService(&stubRateStore{err: assert.AnError}, NewConverter(6.00, nil), nil)
	got := svc.ConvertOn(context.Background(), d("10"), entity.CurrencyEUR, entity.CurrencyBRL, time.Now())
	require.True(t, got.Equal(d("60")), "got %s", got)
}
