package export

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dmaraujo/finpipe/internal/entity"
)

type stubLister struct {
	txs []entity.Transaction
	err error
}

func (s *stubLister) ListByUser(context.Context, uuid.UUID, time.Time) ([]entity.Transaction, error) {
	return s.txs, s.err
}

func sampleTx(date time.Time, desc, amount string) entity.Transaction {
	accountID := uuid.New()
	v, _ := decimal.NewFromString(amount)
	return entity.Transaction{
		ID:          uuid.New(),
		AccountID:   &accountID,
		TxDate:      date,
		Description: desc,
		Amount:      v,
		Currency:    "EUR",
		Category:    "Groceries",
	}
}

func TestExportTransactionsXLSX(t *testing.T) {
	txs := []entity.Transaction{
		sampleTx(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "COMPRA CONTINENTE", "-45.90"),
		sampleTx(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), "PINGO DOCE", "-12.30"),
	}
	svc := NewService(&stubLister{txs: txs}, nil)

	out, err := svc.ExportTransactionsXLSX(context.Background(), uuid.New(), nil, nil)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Date", "Description", "Amount", "Currency", "Category", "Account"}, rows[0])
	assert.Equal(t, "2024-03-15", rows[1][0])
	assert.Equal(t, "COMPRA CONTINENTE", rows[1][1])
	assert.Equal(t, "EUR", rows[1][3])
	assert.Equal(t, "Groceries", rows[1][4])
}

func TestExportFiltersFromDate(t *testing.T) {
	txs := []entity.Transaction{
		sampleTx(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), "ANTIGA", "-5.00"),
		sampleTx(time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC), "RECENTE", "-9.00"),
	}
	svc := NewService(&stubLister{txs: txs}, nil)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out, err := svc.ExportTransactionsXLSX(context.Background(), uuid.New(), &from, nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "RECENTE", rows[1][1])
}

func TestExportPropagatesListError(t *testing.T) {
	svc := NewService(&stubLister{err: assert.AnError}, nil)
	_, err := svc.ExportTransactionsXLSX(context.Background(), uuid.New(), nil, nil)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 200)
	got := truncate(long, 140)
	assert.Len(t, []rune(got), 140)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, "curto", truncate("curto", 140))
}
