package extract

import (
	"strings"
	"time"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// TextOf extracts the best text for an OCR entity: the provider-normalized
// value when present, else the raw mention text.
func TextOf(e entity.Entity) string {
	if e.NormalizedValue != nil && strings.TrimSpace(e.NormalizedValue.Text) != "" {
		return collapseWhitespace(e.NormalizedValue.Text)
	}
	return collapseWhitespace(e.MentionText)
}

// NumberOf extracts a numeric value for an OCR entity: the provider-normalized
// number when present, else a locale-tolerant parse of its text.
func NumberOf(e entity.Entity) *float64 {
	if e.NormalizedValue != nil && e.NormalizedValue.NumberValue != nil {
		v := *e.NormalizedValue.NumberValue
		return &v
	}
	return ParseAmount(TextOf(e))
}

// PickProp finds a direct child property whose type matches one of the
// candidate names, case-insensitively. Entity schemas vary by processor
// version, so callers pass every synonym they know for a semantic field.
func PickProp(e entity.Entity, names ...string) *entity.Entity {
	for i := range e.Properties {
		t := strings.ToLower(strings.TrimSpace(e.Properties[i].Type))
		if t == "" {
			continue
		}
		for _, n := range names {
			if t == strings.ToLower(n) {
				return &e.Properties[i]
			}
		}
	}
	return nil
}

// Synonym lists per semantic field. Processor schemas disagree on naming, so
// lookups always try the whole family.
var (
	datePropNames = []string{
		"date", "transaction_date", "transaction-date", "data", "dt",
		"posting_date", "value_date", "data_movimento", "data_valor",
	}
	descPropNames = []string{
		"description", "descricao", "historic", "historico", "merchant",
		"name", "detail", "details", "memo", "movimento",
	}
	amountPropNames = []string{
		"amount", "valor", "value", "total", "transaction_amount",
		"montante", "price", "importancia",
	}
	categoryPropNames = []string{"category", "categoria"}
)

// transactionTypeNames are entity types that directly represent a movement.
var transactionTypeNames = map[string]struct{}{
	"transaction":      {},
	"line_item":        {},
	"table_row":        {},
	"bank_transaction": {},
	"statement_line":   {},
	"installment":      {},
	"movement":         {},
}

func isTransactionType(t string) bool {
	lt := strings.ToLower(strings.TrimSpace(t))
	if lt == "" {
		return false
	}
	if _, ok := transactionTypeNames[lt]; ok {
		return true
	}
	return strings.Contains(lt, "line") || strings.Contains(lt, "row") || strings.Contains(lt, "entry")
}

// looksTransactionShaped reports whether an untyped entity still carries
// amount- or date-like children worth mapping.
func looksTransactionShaped(e entity.Entity) bool {
	for _, p := range e.Properties {
		t := strings.ToLower(p.Type)
		for _, n := range amountPropNames {
			if t == n {
				return true
			}
		}
		for _, n := range datePropNames {
			if t == n {
				return true
			}
		}
	}
	return false
}

// MapEntities walks the OCR entity tree collecting transaction-shaped nodes
// and resolving their fields. The walk is an explicit work-list, never
// recursion: entity trees have no depth invariant and must not be able to
// blow the stack.
func MapEntities(doc *entity.Document, refDate time.Time) []entity.ExtractedTransaction {
	if doc == nil || len(doc.Entities) == 0 {
		return nil
	}

	var candidates []entity.Entity
	stack := make([]entity.Entity, len(doc.Entities))
	copy(stack, doc.Entities)
	const maxNodes = 50000 // bound against malformed trees
	visited := 0
	for len(stack) > 0 && visited < maxNodes {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++

		if isTransactionType(e.Type) || looksTransactionShaped(e) {
			candidates = append(candidates, e)
			continue // a matched node's children are its fields, not more rows
		}
		stack = append(stack, e.Properties...)
	}

	baseYear := refDate.Year()
	var out []entity.ExtractedTransaction
	for _, cand := range candidates {
		tx, ok := mapOne(cand, refDate, baseYear)
		if ok {
			out = append(out, tx)
		}
	}
	return out
}

// mapOne resolves one candidate entity into a transaction. Direct typed
// lookup first; when that fails, scan all children heuristically.
func mapOne(e entity.Entity, refDate time.Time, baseYear int) (entity.ExtractedTransaction, bool) {
	var date, desc, category string
	var amount *float64

	if p := PickProp(e, datePropNames...); p != nil {
		date = ParseFlexibleDate(TextOf(*p), baseYear)
	}
	descTyped := false
	if p := PickProp(e, descPropNames...); p != nil {
		desc = TextOf(*p)
		descTyped = desc != ""
	}
	if p := PickProp(e, amountPropNames...); p != nil {
		amount = NumberOf(*p)
	}
	if p := PickProp(e, categoryPropNames...); p != nil {
		category = TextOf(*p)
	}

	// heuristic sweep over untyped children for whatever is still missing
	for _, p := range e.Properties {
		text := TextOf(p)
		if text == "" {
			continue
		}
		if date == "" {
			if iso := ParseFlexibleDate(text, baseYear); iso != "" {
				date = iso
				continue
			}
		}
		if amount == nil && !looksLikeDate(text) {
			if v := ParseAmount(text); v != nil {
				amount = v
				continue
			}
		}
		if !descTyped && hasLetter(text) && len(text) >= 3 && len(text) > len(desc) {
			desc = text
		}
	}

	desc = collapseWhitespace(desc)
	if isBoilerplateDescription(desc) {
		return entity.ExtractedTransaction{}, false
	}
	if date == "" && amount == nil {
		return entity.ExtractedTransaction{}, false
	}
	if date == "" {
		// explicit fallback, not a silent empty date
		date = refDate.Format("2006-01-02")
	}
	if category == "" {
		category = string(constants.SuggestCategory(desc))
	}
	return entity.ExtractedTransaction{
		Date:              date,
		Description:       desc,
		Amount:            amount,
		SuggestedCategory: category,
	}, true
}
