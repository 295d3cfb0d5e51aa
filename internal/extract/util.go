package extract

import (
	"regexp"
	"strings"
)

var diacriticReplacer = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "ô", "o", "õ", "o", "ö", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n",
	"Á", "A", "À", "A", "Â", "A", "Ã", "A", "Ä", "A",
	"É", "E", "È", "E", "Ê", "E", "Ë", "E",
	"Í", "I", "Ì", "I", "Î", "I", "Ï", "I",
	"Ó", "O", "Ò", "O", "Ô", "O", "Õ", "O", "Ö", "O",
	"Ú", "U", "Ù", "U", "Û", "U", "Ü", "U",
	"Ç", "C", "Ñ", "N",
)

// stripDiacritics folds the accented characters that show up in Portuguese
// and Spanish financial documents to their ASCII base.
func stripDiacritics(s string) string {
	return diacriticReplacer.Replace(s)
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

var letterRe = regexp.MustCompile(`[a-zA-ZÀ-ÿ]`)

func hasLetter(s string) bool {
	return letterRe.MatchString(s)
}

var pureDigitsRe = regexp.MustCompile(`^[\d\s.,/-]+$`)

// summaryWords are boilerplate markers whose lines never carry a transaction.
var summaryWords = []string{
	"total", "subtotal", "saldo", "resumo", "balance",
	"saldo anterior", "saldo final", "carried forward",
	"pagina", "page", "extrato", "statement",
}

// isSummaryLine reports whether a line is a totals/balance/page-header line
// rather than a movement. The marker must lead the line; a merchant name that
// merely contains "total" is not a summary.
func isSummaryLine(line string) bool {
	norm := stripDiacritics(strings.ToLower(collapseWhitespace(line)))
	if norm == "" {
		return true
	}
	for _, w := range summaryWords {
		if norm == w || strings.HasPrefix(norm, w+" ") || strings.HasPrefix(norm, w+":") {
			return true
		}
	}
	return false
}

// isBoilerplateDescription rejects candidate descriptions that carry no
// information: no letters, pure digit runs, or a lone summary word.
func isBoilerplateDescription(desc string) bool {
	d := collapseWhitespace(desc)
	if d == "" || !hasLetter(d) || pureDigitsRe.MatchString(d) {
		return true
	}
	norm := stripDiacritics(strings.ToLower(d))
	for _, w := range summaryWords {
		if norm == w {
			return true
		}
	}
	return false
}

// normalizeHeader lowers and de-accents a table header cell for keyword probing.
func normalizeHeader(s string) string {
	return stripDiacritics(strings.ToLower(collapseWhitespace(s)))
}
