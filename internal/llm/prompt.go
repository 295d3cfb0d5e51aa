package llm

import (
	"fmt"
	"strings"

	"github.com/dmaraujo/finpipe/internal/entity"
)

// StatementSystemPrompt frames the model as a statement parser.
const StatementSystemPrompt = `You are a financial document parser. You receive OCR text from a bank statement, credit card statement or store receipt and return structured JSON.

Rules:
- Return ONLY a JSON object, no markdown, no commentary.
- Dates are YYYY-MM-DD. Amounts use "." as decimal separator.
- Outflows (purchases, debits, fees) are negative. Inflows (salary, refunds, payments received) are positive.
- Never invent transactions that are not in the text. Skip balance lines, totals and carried-forward rows.
- doc_type is one of: receipt, credit_card, bank_statement.`

// BuildStatementPrompt renders the user message for statement extraction.
func BuildStatementPrompt(req ExtractRequest) string {
	var b strings.Builder
	if req.DocTypeHint != "" {
		fmt.Fprintf(&b, "Document type: %s\n", req.DocTypeHint)
	}
	if req.Filename != "" {
		fmt.Fprintf(&b, "Filename: %s\n", req.Filename)
	}
	if len(req.Categories) > 0 {
		fmt.Fprintf(&b, "Allowed categories: %s\n", strings.Join(req.Categories, ", "))
	}
	b.WriteString("\nOCR text:\n")
	b.WriteString(req.OCRText)
	return b.String()
}

// ReceiptSystemPrompt frames the model as a receipt line fixer.
const ReceiptSystemPrompt = `You clean up OCR-damaged receipt line items. You receive a list of items and must fix garbled descriptions, merge lines that were split by OCR, and fill missing totals when quantity and unit price allow it.

Rules:
- Return ONLY a JSON array of items, no markdown, no commentary.
- Never invent items. Drop lines that are clearly not products (totals, change, card details).
- Keep item order.`

// BuildReceiptPrompt renders the user message for receipt item cleanup.
func BuildReceiptPrompt(items []entity.ReceiptItem, merchant string, total *float64) string {
	var b strings.Builder
	if merchant != "" {
		fmt.Fprintf(&b, "Merchant: %s\n", merchant)
	}
	if total != nil {
		fmt.Fprintf(&b, "Receipt total: %.2f\n", *total)
	}
	b.WriteString("\nItems:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- code=%q desc=%q qty=%s unit=%s total=%s\n",
			it.Code, it.Description, fmtNum(it.Quantity), fmtNum(it.UnitPrice), fmtNum(it.Total))
	}
	return b.String()
}

func fmtNum(v *float64) string {
	if v == nil {
		return "?"
	}
	return fmt.Sprintf("%.2f", *v)
}
