package entity

// ExtractedReceipt is the structured result of receipt extraction: header
// fields plus itemized lines. Missing totals are derived (see Normalize).
type ExtractedReceipt struct {
	Merchant string        `json:"merchant,omitempty"`
	Date     string        `json:"date,omitempty"` // YYYY-MM-DD
	Subtotal *float64      `json:"subtotal,omitempty"`
	Tax      *float64      `json:"tax,omitempty"`
	Total    *float64      `json:"total,omitempty"`
	Items    []ReceiptItem `json:"items"`
}

// ReceiptItem is one itemized line on a receipt.
type ReceiptItem struct {
	Code        string   `json:"code,omitempty"`
	Description string   `json:"description"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unit_price,omitempty"`
	Total       *float64 `json:"total,omitempty"`
	TaxRate     *float64 `json:"tax_rate,omitempty"`   // percent
	TaxAmount   *float64 `json:"tax_amount,omitempty"` // back-computed when rate and total are known
}

// Normalize derives the header fields the document did not state directly:
// a missing total becomes the sum of item totals (unit price x quantity where
// an item total is missing), and subtotal = total - tax when both are known.
func (r *ExtractedReceipt) Normalize() {
	if r.Total == nil {
		sum := 0.0
		seen := false
		for _, it := range r.Items {
			switch {
			case it.Total != nil:
				sum += *it.Total
				seen = true
			case it.UnitPrice != nil && it.Quantity != nil:
				sum += *it.UnitPrice * *it.Quantity
				seen = true
			}
		}
		if seen {
			sum = round2(sum)
			r.Total = &sum
		}
	}
	if r.Subtotal == nil && r.Total != nil && r.Tax != nil {
		sub := round2(*r.Total - *r.Tax)
		r.Subtotal = &sub
	}
}

func round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}
