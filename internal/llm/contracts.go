package llm

import (
	"context"

	"github.com/dmaraujo/finpipe/internal/entity"
)

// ExtractRequest carries everything the model needs to turn OCR text into
// structured transactions.
type ExtractRequest struct {
	OCRText     string
	Filename    string
	DocTypeHint string // optional classifier output, constrains the model
	Categories  []string
}

// TransactionJSON is the model-facing transaction shape.
type TransactionJSON struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	Description string  `json:"description"`
	Amount      float64 `json:"amount"` // signed, negative = outflow
	Category    string  `json:"category,omitempty"`
}

// StatementResult is the normalized shape we expect from the model for a
// whole document.
type StatementResult struct {
	DocType      string            `json:"doc_type"`
	Transactions []TransactionJSON `json:"transactions"`
}

// ToExtracted converts model output into the pipeline's transaction shape.
// Rows missing a date or description are dropped.
func (r *StatementResult) ToExtracted() []entity.ExtractedTransaction {
	out := make([]entity.ExtractedTransaction, 0, len(r.Transactions))
	for _, t := range r.Transactions {
		if t.Date == "" || t.Description == "" {
			continue
		}
		v := t.Amount
		out = append(out, entity.ExtractedTransaction{
			Date:              t.Date,
			Description:       t.Description,
			Amount:            &v,
			SuggestedCategory: t.Category,
		})
	}
	return out
}

// ReceiptItemJSON is the model-facing receipt line shape used by cleanup.
type ReceiptItemJSON struct {
	Code        string   `json:"code,omitempty"`
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Total       *float64 `json:"total,omitempty"`
}

// Extractor is the interface the pipeline depends on. Implementations must
// treat every model response as untrusted: validate or repair before use, and
// report a miss rather than propagate malformed output.
type Extractor interface {
	ExtractTransactions(ctx context.Context, req ExtractRequest) (*StatementResult, error)
	CleanupReceiptItems(ctx context.Context, items []entity.ReceiptItem, merchant string, total *float64) ([]entity.ReceiptItem, error)
}
