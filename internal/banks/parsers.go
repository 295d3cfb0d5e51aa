package banks

import (
	"regexp"
	"strings"
	"time"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/entity"
	"github.com/dmaraujo/finpipe/internal/extract"
)

// CGD statements carry two dot-separated dates (movement and value date), the
// description, the signed amount and the running balance.
var cgdLineRe = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4})\s+\d{2}\.\d{2}\.\d{4}\s+(.+?)\s+(\d{1,3}(?:\.\d{3})*,\d{2}-?)\s+\d{1,3}(?:\.\d{3})*,\d{2}-?$`)

func parseCGDStatement(doc *entity.Document, refDate time.Time) []entity.ExtractedTransaction {
	return parseByLine(doc, refDate, cgdLineRe, func(m []string, baseYear int) (string, string, string) {
		return m[1], m[2], m[3]
	})
}

// Millennium statements use slash dates and sign-prefixed amounts, balance last.
var millenniumLineRe = regexp.MustCompile(`^(\d{2}/\d{2}/\d{4})\s+\d{2}/\d{2}/\d{4}\s+(.+?)\s+(-?\d{1,3}(?:\.\d{3})*,\d{2})\s+-?\d{1,3}(?:\.\d{3})*,\d{2}$`)

func parseMillenniumStatement(doc *entity.Document, refDate time.Time) []entity.ExtractedTransaction {
	return parseByLine(doc, refDate, millenniumLineRe, func(m []string, baseYear int) (string, string, string) {
		return m[1], m[2], m[3]
	})
}

// Itau extrato lines: date, description, signed value. Day-month dates take
// the statement year.
var itauLineRe = regexp.MustCompile(`^(\d{2}/\d{2}(?:/\d{4})?)\s+(.+?)\s+(-?\d{1,3}(?:\.\d{3})*,\d{2})$`)

func parseItauStatement(doc *entity.Document, refDate time.Time) []entity.ExtractedTransaction {
	return parseByLine(doc, refDate, itauLineRe, func(m []string, baseYear int) (string, string, string) {
		return m[1], m[2], m[3]
	})
}

// Nubank bill lines: "05 MAR Uber *Trip 12,50". Bill amounts are unsigned
// purchases, forced negative below; payments are marked by description.
var nubankLineRe = regexp.MustCompile(`(?i)^(\d{2}\s+(?:jan|fev|mar|abr|mai|jun|jul|ago|set|out|nov|dez))\s+(.+?)\s+(\d{1,3}(?:\.\d{3})*,\d{2})$`)

var nubankPaymentRe = regexp.MustCompile(`(?i)pagamento\s+recebido|pagamento\s+em`)

func parseNubankBill(doc *entity.Document, refDate time.Time) []entity.ExtractedTransaction {
	txs := parseByLine(doc, refDate, nubankLineRe, func(m []string, baseYear int) (string, string, string) {
		return m[1], m[2], m[3]
	})
	for i := range txs {
		if txs[i].Amount == nil {
			continue
		}
		v := *txs[i].Amount
		if nubankPaymentRe.MatchString(txs[i].Description) {
			if v < 0 {
				v = -v
			}
		} else if v > 0 {
			v = -v
		}
		txs[i].Amount = &v
	}
	return txs
}

// parseByLine runs a line regex over the raw OCR text and maps the captures
// through pick(date, description, amount).
func parseByLine(doc *entity.Document, refDate time.Time, re *regexp.Regexp, pick func(m []string, baseYear int) (string, string, string)) []entity.ExtractedTransaction {
	if doc == nil {
		return nil
	}
	baseYear := refDate.Year()
	var out []entity.ExtractedTransaction
	for _, rawLine := range strings.Split(doc.Text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rawDate, desc, rawAmount := pick(m, baseYear)
		date := extract.ParseFlexibleDate(rawDate, baseYear)
		if date == "" {
			continue
		}
		amount := extract.ParseAmount(rawAmount)
		if amount == nil {
			continue
		}
		desc = strings.TrimSpace(desc)
		if desc == "" {
			continue
		}
		out = append(out, entity.ExtractedTransaction{
			Date:              date,
			Description:       desc,
			Amount:            amount,
			SuggestedCategory: string(constants.SuggestCategory(desc)),
		})
	}
	return out
}
