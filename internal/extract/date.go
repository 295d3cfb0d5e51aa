package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// monthNames maps accent-stripped Portuguese and English month spellings
// (full and abbreviated) to month numbers.
var monthNames = map[string]time.Month{
	"jan": time.January, "janeiro": time.January, "january": time.January,
	"fev": time.February, "feb": time.February, "fevereiro": time.February, "february": time.February,
	"mar": time.March, "marco": time.March, "march": time.March,
	"abr": time.April, "apr": time.April, "abril": time.April, "april": time.April,
	"mai": time.May, "may": time.May, "maio": time.May,
	"jun": time.June, "junho": time.June, "june": time.June,
	"jul": time.July, "julho": time.July, "july": time.July,
	"ago": time.August, "aug": time.August, "agosto": time.August, "august": time.August,
	"set": time.September, "sep": time.September, "setembro": time.September, "september": time.September,
	"out": time.October, "oct": time.October, "outubro": time.October, "october": time.October,
	"nov": time.November, "novembro": time.November, "november": time.November,
	"dez": time.December, "dec": time.December, "dezembro": time.December, "december": time.December,
}

var (
	ymdRe = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
	// year-less DD-MM is only recognized with - or / separators; a bare
	// "12.10" is an amount, not a date
	dmyRe        = regexp.MustCompile(`^(\d{1,2})[-/.](\d{1,2})[-/.](\d{2,4})$`)
	dmNoYearRe   = regexp.MustCompile(`^(\d{1,2})[-/](\d{1,2})$`)
	dayMonthRe   = regexp.MustCompile(`^(\d{1,2})\s+(?:de\s+)?([a-z]+)\.?(?:\s+(?:de\s+)?(\d{4}))?$`)
	dateSearchRe = regexp.MustCompile(`(?i)(\d{4}[-/]\d{1,2}[-/]\d{1,2}|\d{1,2}[-/.]\d{1,2}(?:[-/.]\d{2,4})?|\d{1,2}\s+(?:de\s+)?[a-zà-ÿ]{3,9}\.?(?:\s+(?:de\s+)?\d{4})?)`)
)

// ParseFlexibleDate parses the date spellings found on statements and
// receipts into ISO YYYY-MM-DD. Accepts YYYY-MM-DD / YYYY/MM/DD,
// DD-MM-YYYY / DD/MM/YYYY / DD.MM.YYYY (2- or 4-digit year, 2-digit assumed
// 20YY), DD-MM (year defaults to baseYear, or the current year when
// baseYear <= 0), and "DD <month-name> [YYYY]" with Portuguese or English
// month names. Returns "" on failure; it never substitutes a default date.
func ParseFlexibleDate(text string, baseYear int) string {
	s := stripDiacritics(strings.ToLower(collapseWhitespace(text)))
	if s == "" {
		return ""
	}
	if baseYear <= 0 {
		baseYear = time.Now().Year()
	}

	if m := ymdRe.FindStringSubmatch(s); m != nil {
		return isoDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	if m := dmyRe.FindStringSubmatch(s); m != nil {
		year := atoi(m[3])
		if year < 100 {
			year += 2000
		}
		return isoDate(year, atoi(m[2]), atoi(m[1]))
	}
	if m := dmNoYearRe.FindStringSubmatch(s); m != nil {
		return isoDate(baseYear, atoi(m[2]), atoi(m[1]))
	}
	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		month, ok := monthNames[m[2]]
		if !ok {
			return ""
		}
		year := baseYear
		if m[3] != "" {
			year = atoi(m[3])
		}
		return isoDate(year, int(month), atoi(m[1]))
	}
	return ""
}

// isoDate validates the calendar values and formats them, or returns "".
func isoDate(year, month, day int) string {
	if year < 1900 || year > 2200 || month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject those
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// dateMatch is a located, parsed date substring inside a text line.
type dateMatch struct {
	Text  string
	Start int
	End   int
	ISO   string
}

// findDate locates the first parseable date-shaped substring in a line.
func findDate(line string, baseYear int) (dateMatch, bool) {
	for _, idx := range dateSearchRe.FindAllStringIndex(line, -1) {
		raw := line[idx[0]:idx[1]]
		if iso := ParseFlexibleDate(raw, baseYear); iso != "" {
			return dateMatch{Text: raw, Start: idx[0], End: idx[1], ISO: iso}, true
		}
	}
	return dateMatch{}, false
}

// looksLikeDate reports whether the whole string is date-shaped.
func looksLikeDate(s string) bool {
	return ParseFlexibleDate(s, 0) != ""
}
