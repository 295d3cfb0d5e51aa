package banks

import (
	"regexp"
)

// GenericStore is attributed to receipt-shaped documents that match no known
// chain. A mis-attributed receipt is preferable to dropping it downstream.
const GenericStore = "GENERICO"

// bankShapedRe disqualifies store detection outright: statement and
// card-statement phrasing means this is not a retail receipt.
var bankShapedRe = regexp.MustCompile(`(?i)extrato\s+(banc[aá]rio|de\s+conta)|conta\s+[aà]\s+ordem|fatura\s+do\s+cart[aã]o|saldo\s+anterior|\biban\b`)

// receiptShapedRe is the positive gate: fiscal-number/invoice/itemized
// phrasing that retail receipts carry.
var receiptShapedRe = regexp.MustCompile(`(?i)\bnif\b|\bcontribuinte\b|fatura\s+simplificada|\brecibo\b|\btal[aã]o\b|iva\s+inclu[ií]do|total\s+a\s+pagar`)

type storePattern struct {
	name string
	re   *regexp.Regexp
}

// known retail chains, iterated in order; first match wins
var storePatterns = []storePattern{
	{"CONTINENTE", regexp.MustCompile(`(?i)\bcontinente\b|modelo\s+continente`)},
	{"PINGO_DOCE", regexp.MustCompile(`(?i)pingo\s*doce`)},
	{"LIDL", regexp.MustCompile(`(?i)\blidl\b`)},
	{"ALDI", regexp.MustCompile(`(?i)\baldi\b`)},
	{"MERCADONA", regexp.MustCompile(`(?i)\bmercadona\b`)},
	{"AUCHAN", regexp.MustCompile(`(?i)\bauchan\b|\bjumbo\b`)},
	{"INTERMARCHE", regexp.MustCompile(`(?i)intermarch[eé]`)},
	{"EL_CORTE_INGLES", regexp.MustCompile(`(?i)corte\s+ingl[eé]s`)},
}

// DetectStore identifies the retail chain behind a receipt-shaped document.
// Bank-shaped documents are disqualified first; documents that pass both
// gates but match no known chain come back as GENERICO. The second return is
// false only when the document is not a store receipt at all.
func DetectStore(text string) (string, bool) {
	if bankShapedRe.MatchString(text) {
		return "", false
	}
	if !receiptShapedRe.MatchString(text) {
		return "", false
	}
	for _, sp := range storePatterns {
		if sp.re.MatchString(text) {
			return sp.name, true
		}
	}
	return GenericStore, true
}
