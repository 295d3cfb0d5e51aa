// Package banks holds the institution-specific parsing layer: a registry of
// known banks and retail chains, identified by pattern over the OCR text,
// each with a parser tuned to that institution's statement layout. A
// successful institution parse supersedes the generic cascade entirely.
package banks

import (
	"regexp"
	"time"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// Parser identifies one institution and parses its layout.
type Parser struct {
	Name     string
	Patterns []*regexp.Regexp
	Kind     constants.DocType
	Parse    func(doc *entity.Document, refDate time.Time) []entity.ExtractedTransaction
}

// registry is iterated in order; the first institution whose pattern matches
// wins. There is no scoring across institutions.
var registry = []Parser{
	{
		Name: "CGD",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)caixa\s+geral\s+de\s+dep[oó]sitos`),
			regexp.MustCompile(`(?i)\bcaixadirecta\b`),
		},
		Kind:  constants.DocTypeBankStatement,
		Parse: parseCGDStatement,
	},
	{
		Name: "MILLENNIUM",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)millennium\s*bcp`),
			regexp.MustCompile(`(?i)banco\s+comercial\s+portugu[eê]s`),
		},
		Kind:  constants.DocTypeBankStatement,
		Parse: parseMillenniumStatement,
	},
	{
		Name: "ITAU",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bita[uú]\s+unibanco\b`),
			regexp.MustCompile(`(?i)extrato\s+conta\s+corrente.*ita[uú]`),
		},
		Kind:  constants.DocTypeBankStatement,
		Parse: parseItauStatement,
	},
	{
		Name: "NUBANK",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bnubank\b`),
			regexp.MustCompile(`(?i)nu\s+pagamentos`),
		},
		Kind:  constants.DocTypeCreditCard,
		Parse: parseNubankBill,
	},
}

// Detect scans the document text against every registered institution and
// returns the first match.
func Detect(text string) (Parser, bool) {
	for _, p := range registry {
		for _, re := range p.Patterns {
			if re.MatchString(text) {
				return p, true
			}
		}
	}
	return Parser{}, false
}
