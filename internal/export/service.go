package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/dmaraujo/finpipe/internal/entity"
)

// TransactionLister is the read surface the exporter needs.
type TransactionLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID, cutoff time.Time) ([]entity.Transaction, error)
}

// Service produces XLSX bytes for transaction exports.
type Service struct {
	txs    TransactionLister
	logger *slog.Logger
}

func NewService(txs TransactionLister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{txs: txs, logger: logger}
}

// ExportTransactionsXLSX returns an XLSX workbook (as bytes) with the user's
// transactions in the given window. A nil to defaults to today; a nil from
// means from the beginning.
func (s *Service) ExportTransactionsXLSX(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	cutoff := time.Now().UTC()
	if to != nil {
		cutoff = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	}
	txs, err := s.txs.ListByUser(ctx, userID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		filtered := txs[:0]
		for _, t := range txs {
			if !t.TxDate.Before(f) {
				filtered = append(filtered, t)
			}
		}
		txs = filtered
	}

	f := excelize.NewFile()
	const sheet = "Transactions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Date",
		"Description",
		"Amount",
		"Currency",
		"Category",
		"Account",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, t := range txs {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, t.TxDate.Format("2006-01-02"))
		write(2, truncate(t.Description, 140))
		amount, _ := t.Amount.Float64()
		write(3, amount)
		write(4, t.Currency)
		write(5, t.Category)
		switch {
		case t.AccountID != nil:
			write(6, t.AccountID.String())
		case t.CreditCardID != nil:
			write(6, t.CreditCardID.String())
		}

		row++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 48) // description
	_ = f.SetColWidth(sheet, "C", "C", 14) // amount
	_ = f.SetColWidth(sheet, "D", "D", 10) // currency
	_ = f.SetColWidth(sheet, "E", "E", 22) // category
	_ = f.SetColWidth(sheet, "F", "F", 38) // account

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"user_id", userID.String(),
		"rows", len(txs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
