// Package classify decides whether an OCR'd document is a retail receipt, a
// credit-card bill or a bank statement. It is a pure function of its inputs
// so every signal path stays testable.
package classify

import (
	"regexp"
	"strings"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// entity-type signal families, matched against entity type names
var (
	receiptEntityRe = regexp.MustCompile(`(?i)line_item|receipt|supplier|merchant`)
	cardEntityRe    = regexp.MustCompile(`(?i)credit_card|card_statement|installment`)
	bankEntityRe    = regexp.MustCompile(`(?i)bank_statement|statement_line|account_number|iban`)
)

// keyword lists per class, disjoint, matched on accent-stripped lowercase text
var (
	receiptKeywords = []string{
		"nif", "fatura simplificada", "recibo", "talao", "contribuinte",
		"artigos", "iva incluido", "troco", "caixa",
	}
	cardKeywords = []string{
		"cartao de credito", "credit card", "limite disponivel", "limite de credito",
		"fatura do cartao", "pagamento minimo", "anuidade",
	}
	bankKeywords = []string{
		"iban", "saldo anterior", "saldo final", "extrato", "conta a ordem",
		"nib", "movimentos", "swift", "account statement",
	}
)

// filename hints per class
var (
	receiptFileRe = regexp.MustCompile(`(?i)recibo|receipt|talao|fatura[-_ ]?simpl`)
	cardFileRe    = regexp.MustCompile(`(?i)cartao|card|credito`)
	bankFileRe    = regexp.MustCompile(`(?i)extrato|statement|conta`)
)

// Classify decides the document class. Priority: entity-type signals, then
// filename keywords, then weighted keyword scoring over the text with ties
// broken by class specificity (receipt > credit_card > bank_statement).
// Callers holding an explicit hint should skip classification entirely.
func Classify(text string, entities []entity.Entity, filename string) constants.DocType {
	if dt, ok := fromEntities(entities); ok {
		return dt
	}
	if dt, ok := fromFilename(filename); ok {
		return dt
	}
	return fromKeywords(text)
}

func fromEntities(entities []entity.Entity) (constants.DocType, bool) {
	// top-level walk with an explicit work-list; nested property types count
	stack := make([]entity.Entity, len(entities))
	copy(stack, entities)
	const maxNodes = 20000
	visited := 0
	var receipt, card, bank bool
	for len(stack) > 0 && visited < maxNodes {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++
		stack = append(stack, e.Properties...)

		t := e.Type
		if t == "" {
			continue
		}
		switch {
		case cardEntityRe.MatchString(t):
			card = true
		case bankEntityRe.MatchString(t):
			bank = true
		case receiptEntityRe.MatchString(t):
			receipt = true
		}
	}
	// card and bank signals are rarer and more specific than line_item
	switch {
	case card:
		return constants.DocTypeCreditCard, true
	case bank:
		return constants.DocTypeBankStatement, true
	case receipt:
		return constants.DocTypeReceipt, true
	}
	return "", false
}

func fromFilename(filename string) (constants.DocType, bool) {
	if filename == "" {
		return "", false
	}
	switch {
	case receiptFileRe.MatchString(filename):
		return constants.DocTypeReceipt, true
	case cardFileRe.MatchString(filename):
		return constants.DocTypeCreditCard, true
	case bankFileRe.MatchString(filename):
		return constants.DocTypeBankStatement, true
	}
	return "", false
}

func fromKeywords(text string) constants.DocType {
	norm := normalizeText(text)
	scores := map[constants.DocType]int{
		constants.DocTypeReceipt:       score(norm, receiptKeywords),
		constants.DocTypeCreditCard:    score(norm, cardKeywords),
		constants.DocTypeBankStatement: score(norm, bankKeywords),
	}
	best := constants.DocTypeBankStatement // least specific default
	bestScore := -1
	// fixed priority order resolves ties toward the most specific class
	for _, dt := range constants.ClassPriority {
		if scores[dt] > bestScore {
			best = dt
			bestScore = scores[dt]
		}
	}
	return best
}

func score(norm string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(norm, kw) {
			n++
		}
	}
	return n
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e", "í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u", "ç", "c",
)

func normalizeText(s string) string {
	return accentReplacer.Replace(strings.ToLower(s))
}
