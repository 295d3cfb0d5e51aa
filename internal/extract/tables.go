package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/entity"
)

var (
	dateHeaderRe   = regexp.MustCompile(`\b(data|date|dt)\b`)
	descHeaderRe   = regexp.MustCompile(`descri|historic|merchant|movimento|detalhe|designac`)
	amountHeaderRe = regexp.MustCompile(`\b(valor|amount|total|montante|importancia|quantia)\b`)
	dcHeaderRe     = regexp.MustCompile(`d/c|dr/cr|\bdebito\b|\bcredito\b|\btipo\b`)
)

// tableColumns holds inferred column indices; -1 means not found.
type tableColumns struct {
	date   int
	desc   int
	amount int
	dcFlag int
}

// ExtractFromTables scans every detected table on every page and maps rows to
// transactions. Column roles come from header keywords when headers exist,
// else from per-row shape heuristics.
func ExtractFromTables(doc *entity.Document, refDate time.Time) []entity.ExtractedTransaction {
	if doc == nil {
		return nil
	}
	baseYear := refDate.Year()
	var out []entity.ExtractedTransaction
	for _, page := range doc.Pages {
		for _, table := range page.Tables {
			out = append(out, extractTable(doc, table, baseYear)...)
		}
	}
	return out
}

func extractTable(doc *entity.Document, table entity.Table, baseYear int) []entity.ExtractedTransaction {
	cols := inferColumns(doc, table)

	var out []entity.ExtractedTransaction
	for _, row := range table.BodyRows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = collapseWhitespace(doc.ResolveText(c.Anchor))
		}
		if tx, ok := mapRow(cells, cols, baseYear); ok {
			out = append(out, tx)
		}
	}
	return out
}

// inferColumns reconstructs the header text from cell anchors and probes it
// for role keywords. Missing or ambiguous headers leave indices at -1 and the
// per-row fallback takes over.
func inferColumns(doc *entity.Document, table entity.Table) tableColumns {
	cols := tableColumns{date: -1, desc: -1, amount: -1, dcFlag: -1}
	for _, hr := range table.HeaderRows {
		for i, cell := range hr.Cells {
			h := normalizeHeader(doc.ResolveText(cell.Anchor))
			if h == "" {
				continue
			}
			switch {
			case cols.date < 0 && dateHeaderRe.MatchString(h):
				cols.date = i
			case cols.desc < 0 && descHeaderRe.MatchString(h):
				cols.desc = i
			case cols.amount < 0 && amountHeaderRe.MatchString(h):
				cols.amount = i
			case cols.dcFlag < 0 && dcHeaderRe.MatchString(h):
				cols.dcFlag = i
			}
		}
	}
	return cols
}

// mapRow turns one table row into a transaction candidate.
func mapRow(cells []string, cols tableColumns, baseYear int) (entity.ExtractedTransaction, bool) {
	if len(cells) == 0 {
		return entity.ExtractedTransaction{}, false
	}

	used := make([]bool, len(cells))

	// date: header column first, else first date-shaped cell
	date := ""
	if cols.date >= 0 && cols.date < len(cells) {
		date = ParseFlexibleDate(cells[cols.date], baseYear)
		if date != "" {
			used[cols.date] = true
		}
	}
	if date == "" {
		for i, c := range cells {
			if used[i] {
				continue
			}
			if iso := ParseFlexibleDate(c, baseYear); iso != "" {
				date = iso
				used[i] = true
				break
			}
		}
	}
	if date == "" {
		return entity.ExtractedTransaction{}, false
	}

	// amount: header column first, else the rightmost parseable cell
	var amount *float64
	rawAmount := ""
	if cols.amount >= 0 && cols.amount < len(cells) && !used[cols.amount] {
		if v := ParseAmount(cells[cols.amount]); v != nil {
			amount = v
			rawAmount = cells[cols.amount]
			used[cols.amount] = true
		}
	}
	if amount == nil {
		for i := len(cells) - 1; i >= 0; i-- {
			if used[i] || looksLikeDate(cells[i]) {
				continue
			}
			if v := ParseAmount(cells[i]); v != nil {
				amount = v
				rawAmount = cells[i]
				used[i] = true
				break
			}
		}
	}
	if amount == nil {
		return entity.ExtractedTransaction{}, false
	}

	// description: header column first, else the longest remaining lettered cell
	desc := ""
	if cols.desc >= 0 && cols.desc < len(cells) && !used[cols.desc] {
		desc = cells[cols.desc]
		used[cols.desc] = true
	}
	if !hasLetter(desc) {
		desc = ""
		for i, c := range cells {
			if used[i] || !hasLetter(c) {
				continue
			}
			if len(c) > len(desc) {
				desc = c
			}
		}
	}
	if isBoilerplateDescription(desc) || isSummaryLine(desc) {
		return entity.ExtractedTransaction{}, false
	}

	// sign correction: explicit flags beat the parsed sign, parens/minus on
	// the raw text force negative
	v := *amount
	if strings.Contains(rawAmount, "(") || strings.HasPrefix(strings.TrimSpace(rawAmount), "-") {
		if v > 0 {
			v = -v
		}
	}
	if cols.dcFlag >= 0 && cols.dcFlag < len(cells) {
		switch directionFromTokens(cells[cols.dcFlag]) {
		case -1:
			if v > 0 {
				v = -v
			}
		case 1:
			if v < 0 {
				v = -v
			}
		}
	}

	return entity.ExtractedTransaction{
		Date:              date,
		Description:       collapseWhitespace(desc),
		Amount:            &v,
		SuggestedCategory: string(constants.SuggestCategory(desc)),
	}, true
}
