package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaraujo/finpipe/internal/entity"
)

var textRef = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestExtractFromPlainText(t *testing.T) {
	text := `EXTRATO DE CONTA
15/03/2024 COMPRA CONTINENTE MATOSINHOS 45,90 D
16/03/2024 TRF ORDENADO EMPRESA LDA 1.500,00 C
Saldo anterior 234,56
17/03/2024 LEVANTAMENTO ATM 50,00 D`

	txs := ExtractFromPlainText(text, textRef)
	require.Len(t, txs, 3)

	assert.Equal(t, "2024-03-15", txs[0].Date)
	assert.Contains(t, txs[0].Description, "COMPRA CONTINENTE")
	require.NotNil(t, txs[0].Amount)
	assert.InDelta(t, -45.9, *txs[0].Amount, 0.0001)
	assert.Equal(t, "Groceries", txs[0].SuggestedCategory)

	require.NotNil(t, txs[1].Amount)
	assert.InDelta(t, 1500.0, *txs[1].Amount, 0.0001)

	require.NotNil(t, txs[2].Amount)
	assert.InDelta(t, -50.0, *txs[2].Amount, 0.0001)
}

func TestExtractFromPlainTextSkipsSummaryLines(t *testing.T) {
	text := `Total 15/03/2024 999,99
Saldo final 15/03/2024 123,45
15/03/2024 COMPRA NORMAL 10,00`

	txs := ExtractFromPlainText(text, textRef)
	require.Len(t, txs, 1)
	assert.Contains(t, txs[0].Description, "COMPRA NORMAL")
}

func TestExtractFromPlainTextDateDigitsNotAmounts(t *testing.T) {
	// the date must be excised before amount scanning so its digits are never
	// read as an amount
	txs := ExtractFromPlainText("15/03/2024 MENSALIDADE GINASIO 29,99", textRef)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].Amount)
	assert.InDelta(t, 29.99, *txs[0].Amount, 0.0001)
}

func TestExtractFromPlainTextPrefersDecimalAmount(t *testing.T) {
	// trailing document number without decimals must lose to the decimal
	// amount
	txs := ExtractFromPlainText("15/03/2024 FATURA REF 123456789 45,90", textRef)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].Amount)
	assert.InDelta(t, 45.9, *txs[0].Amount, 0.0001)
}

func TestExtractFromPlainTextRequiresDateAndAmount(t *testing.T) {
	assert.Empty(t, ExtractFromPlainText("COMPRA SEM DATA 45,90", textRef))
	assert.Empty(t, ExtractFromPlainText("15/03/2024 SEM VALOR NENHUM", textRef))
	assert.Empty(t, ExtractFromPlainText("", textRef))
}

func TestExtractFromLinesUsesAnchors(t *testing.T) {
	var b docBuilder
	a1 := b.anchor("15/03/2024 COMPRA FARMACIA 12,30")
	a2 := b.anchor("Saldo anterior 100,00")
	doc := &entity.Document{
		Text: b.b.String(),
		Pages: []entity.Page{{
			Lines: []entity.Line{{Anchor: a1}, {Anchor: a2}},
		}},
	}

	txs := ExtractFromLines(doc, textRef)
	require.Len(t, txs, 1)
	assert.Equal(t, "2024-03-15", txs[0].Date)
	require.NotNil(t, txs[0].Amount)
	assert.InDelta(t, 12.3, *txs[0].Amount, 0.0001)
}
