package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		base int
		want string
	}{
		{"iso", "2024-03-15", 0, "2024-03-15"},
		{"iso slashes", "2024/03/15", 0, "2024-03-15"},
		{"dmy slashes", "15/03/2024", 0, "2024-03-15"},
		{"dmy dots", "15.03.2024", 0, "2024-03-15"},
		{"dmy dashes", "15-03-2024", 0, "2024-03-15"},
		{"two digit year", "15/03/24", 0, "2024-03-15"},
		{"day month no year", "15/03", 2023, "2023-03-15"},
		{"pt month name", "15 de março de 2024", 0, "2024-03-15"},
		{"pt month abbrev", "12 mar", 2024, "2024-03-12"},
		{"en month name", "15 March 2024", 0, "2024-03-15"},
		{"leading space", "  15/03/2024  ", 0, "2024-03-15"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFlexibleDate(tt.in, tt.base))
		})
	}
}

func TestParseFlexibleDateFailures(t *testing.T) {
	for _, in := range []string{
		"", "not a date", "45,90", "12.10", "99/99/2024", "2024-02-30",
		"31/04/2024", "15 de banana de 2024", "123456",
	} {
		t.Run(in, func(t *testing.T) {
			assert.Empty(t, ParseFlexibleDate(in, 2024), "expected empty for %q", in)
		})
	}
}

func TestParseFlexibleDateDottedNoYearIsNotADate(t *testing.T) {
	// "12.10" reads as an amount in European locales; only - and / may form a
	// year-less date
	assert.Empty(t, ParseFlexibleDate("12.10", 2024))
	assert.Equal(t, "2024-10-12", ParseFlexibleDate("12/10", 2024))
	assert.Equal(t, "2024-10-12", ParseFlexibleDate("12-10", 2024))
}

func TestFindDate(t *testing.T) {
	m, ok := findDate("15/03/2024 COMPRA CONTINENTE 45,90", 0)
	require.True(t, ok)
	assert.Equal(t, "2024-03-15", m.ISO)
	assert.Equal(t, 0, m.Start)

	_, ok = findDate("COMPRA CONTINENTE 45,90", 2024)
	assert.False(t, ok)
}

func TestLooksLikeDate(t *testing.T) {
	assert.True(t, looksLikeDate("2024-03-15"))
	assert.True(t, looksLikeDate("15/03/2024"))
	assert.False(t, looksLikeDate("45,90"))
}
