package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	currencySymbolRe = regexp.MustCompile(`(?i)(R\$|US\$|\$|€|£|\bEUR\b|\bBRL\b|\bUSD\b)`)

	// amountSearchRe finds amount-shaped substrings in free text, tolerant of
	// either separator convention, optional sign, parens and currency symbols.
	amountSearchRe = regexp.MustCompile(`\(?-?\s?(?:R\$|US\$|\$|€|£)?\s?\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?\)?`)

	digitRe = regexp.MustCompile(`\d`)
)

// ParseAmount parses a locale-tolerant monetary string into a float.
// Handles European ("1.234,56"), US ("1,234.56") and bare-decimal-comma
// ("123,45") shapes, parenthesized or minus-signed negatives, and leading
// currency symbols. Returns nil when the text is not an amount; callers must
// treat nil as "skip this field", never as zero.
func ParseAmount(text string) *float64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}

	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	s = currencySymbolRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	} else if strings.HasPrefix(s, "+") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "+"))
	}
	// trailing sign shows up on some statements ("45,90-")
	if strings.HasSuffix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "-"))
	}

	if s == "" || !digitRe.MatchString(s) {
		return nil
	}
	for _, r := range s {
		if r != '.' && r != ',' && (r < '0' || r > '9') {
			return nil
		}
	}

	normalized, ok := normalizeSeparators(s)
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return nil
	}
	if neg {
		v = -v
	}
	return &v
}

// normalizeSeparators rewrites an amount into strconv-parseable form.
// When both separators appear the rightmost one is the decimal point; a single
// separator followed by exactly three digits is treated as a thousands group.
func normalizeSeparators(s string) (string, bool) {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// European: dots group, comma is decimal
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// US: commas group, dot is decimal
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 || len(s)-lastComma-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	if s == "" || s == "." {
		return "", false
	}
	return s, true
}

// amountMatch is a located amount substring inside a text line.
type amountMatch struct {
	Text  string
	Start int
	End   int
	Value float64
}

// findAmounts returns every parseable amount-shaped substring in a line, in
// order of appearance.
func findAmounts(line string) []amountMatch {
	idxs := amountSearchRe.FindAllStringIndex(line, -1)
	matches := make([]amountMatch, 0, len(idxs))
	for _, idx := range idxs {
		raw := line[idx[0]:idx[1]]
		v := ParseAmount(raw)
		if v == nil {
			continue
		}
		matches = append(matches, amountMatch{Text: raw, Start: idx[0], End: idx[1], Value: *v})
	}
	return matches
}

var (
	debitTokens = map[string]struct{}{
		"d": {}, "db": {}, "dr": {}, "debito": {}, "debit": {}, "saida": {},
		"withdrawal": {}, "payment": {}, "pagamento": {},
	}
	creditTokens = map[string]struct{}{
		"c": {}, "cr": {}, "credito": {}, "credit": {}, "entrada": {},
		"deposit": {}, "deposito": {}, "recebimento": {}, "estorno": {},
	}
)

// directionFromTokens inspects the tokens around an amount for an explicit
// debit/credit marker. Returns -1 for debit, +1 for credit, 0 when unmarked.
func directionFromTokens(text string) int {
	for _, tok := range strings.Fields(stripDiacritics(strings.ToLower(text))) {
		tok = strings.Trim(tok, ".,:;()")
		if _, ok := debitTokens[tok]; ok {
			return -1
		}
		if _, ok := creditTokens[tok]; ok {
			return 1
		}
	}
	return 0
}
