package extract

import (
	"strings"
	"time"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// ExtractFromLines reconstructs plain text from the per-line anchors of every
// page and runs the plain-text extractor over it. This captures statements
// where the OCR emitted usable line geometry but no table structure.
func ExtractFromLines(doc *entity.Document, refDate time.Time) []entity.ExtractedTransaction {
	if doc == nil {
		return nil
	}
	var b strings.Builder
	for _, page := range doc.Pages {
		for _, line := range page.Lines {
			text := doc.ResolveText(line.Anchor)
			if strings.TrimSpace(text) == "" {
				continue
			}
			b.WriteString(strings.TrimRight(text, "\n"))
			b.WriteByte('\n')
		}
	}
	if b.Len() == 0 {
		return nil
	}
	return ExtractFromPlainText(b.String(), refDate)
}

// ExtractFromPlainText scans raw OCR text line by line for date+amount
// co-occurrence. It is the last, least precise strategy in the cascade.
func ExtractFromPlainText(text string, refDate time.Time) []entity.ExtractedTransaction {
	baseYear := refDate.Year()
	var out []entity.ExtractedTransaction
	for _, rawLine := range strings.Split(text, "\n") {
		line := collapseWhitespace(rawLine)
		if line == "" || isSummaryLine(line) {
			continue
		}
		if tx, ok := extractLine(line, baseYear); ok {
			out = append(out, tx)
		}
	}
	return out
}

// extractLine parses a single statement line: locate the date, excise it,
// pick the best amount among the remaining amount-shaped substrings, and keep
// the leftover text as the description.
func extractLine(line string, baseYear int) (entity.ExtractedTransaction, bool) {
	date, ok := findDate(line, baseYear)
	if !ok {
		return entity.ExtractedTransaction{}, false
	}
	rest := line[:date.Start] + " " + line[date.End:]

	amounts := findAmounts(rest)
	if len(amounts) == 0 {
		return entity.ExtractedTransaction{}, false
	}
	best := pickAmount(amounts)

	desc := collapseWhitespace(rest[:best.Start] + " " + rest[best.End:])
	if isBoilerplateDescription(desc) {
		return entity.ExtractedTransaction{}, false
	}

	v := best.Value
	switch directionFromTokens(desc) {
	case -1:
		if v > 0 {
			v = -v
		}
	case 1:
		if v < 0 {
			v = -v
		}
	}

	return entity.ExtractedTransaction{
		Date:              date.ISO,
		Description:       desc,
		Amount:            &v,
		SuggestedCategory: string(constants.SuggestCategory(desc)),
	}, true
}

// pickAmount prefers the last decimal-bearing match; bare integer runs on a
// statement line are usually document numbers, not amounts.
func pickAmount(matches []amountMatch) amountMatch {
	for i := len(matches) - 1; i >= 0; i-- {
		if strings.ContainsAny(matches[i].Text, ".,") {
			return matches[i]
		}
	}
	return matches[len(matches)-1]
}
