package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaraujo/finpipe/internal/entity"
)

// docBuilder accumulates document text and hands out anchors into it.
type docBuilder struct {
	b strings.Builder
}

func (d *docBuilder) anchor(s string) entity.TextAnchor {
	start := int64(d.b.Len())
	d.b.WriteString(s)
	end := int64(d.b.Len())
	d.b.WriteString("\n")
	return entity.TextAnchor{Segments: []entity.TextSegment{{Start: start, End: end}}}
}

func (d *docBuilder) row(cells ...string) entity.TableRow {
	var row entity.TableRow
	for _, c := range cells {
		row.Cells = append(row.Cells, entity.TableCell{Anchor: d.anchor(c)})
	}
	return row
}

var tablesRef = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestExtractFromTablesWithHeaders(t *testing.T) {
	var b docBuilder
	table := entity.Table{
		HeaderRows: []entity.TableRow{b.row("Data", "Descrição", "Valor", "D/C")},
		BodyRows: []entity.TableRow{
			b.row("15/03/2024", "COMPRA CONTINENTE", "45,90", "D"),
			b.row("16/03/2024", "VENCIMENTO MARCO", "1.500,00", "C"),
		},
	}
	doc := &entity.Document{
		Text:  b.b.String(),
		Pages: []entity.Page{{Tables: []entity.Table{table}}},
	}

	txs := ExtractFromTables(doc, tablesRef)
	require.Len(t, txs, 2)

	assert.Equal(t, "2024-03-15", txs[0].Date)
	assert.Equal(t, "COMPRA CONTINENTE", txs[0].Description)
	require.NotNil(t, txs[0].Amount)
	assert.InDelta(t, -45.9, *txs[0].Amount, 0.0001, "debit flag must force negative")

	require.NotNil(t, txs[1].Amount)
	assert.InDelta(t, 1500.0, *txs[1].Amount, 0.0001)
	assert.Equal(t, "Salary", txs[1].SuggestedCategory)
}

func TestExtractFromTablesHeaderless(t *testing.T) {
	var b docBuilder
	table := entity.Table{
		BodyRows: []entity.TableRow{
			b.row("15/03/2024", "FARMACIA CENTRAL", "12,30"),
		},
	}
	doc := &entity.Document{
		Text:  b.b.String(),
		Pages: []entity.Page{{Tables: []entity.Table{table}}},
	}

	txs := ExtractFromTables(doc, tablesRef)
	require.Len(t, txs, 1)
	assert.Equal(t, "2024-03-15", txs[0].Date)
	assert.Equal(t, "FARMACIA CENTRAL", txs[0].Description)
	require.NotNil(t, txs[0].Amount)
	assert.InDelta(t, 12.3, *txs[0].Amount, 0.0001)
}

func TestExtractFromTablesPicksRightmostAmount(t *testing.T) {
	// headerless row with two numbers: the rightmost parseable cell wins
	var b docBuilder
	table := entity.Table{
		BodyRows: []entity.TableRow{
			b.row("15/03/2024", "COMPRA LOJA", "2", "19,98"),
		},
	}
	doc := &entity.Document{
		Text:  b.b.String(),
		Pages: []entity.Page{{Tables: []entity.Table{table}}},
	}

	txs := ExtractFromTables(doc, tablesRef)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].Amount)
	assert.InDelta(t, 19.98, *txs[0].Amount, 0.0001)
}

func TestExtractFromTablesDropsIncompleteRows(t *testing.T) {
	var b docBuilder
	table := entity.Table{
		BodyRows: []entity.TableRow{
			b.row("no date here", "DESCRICAO", "10,00"),
			b.row("15/03/2024", "SEM VALOR", "texto"),
			b.row("15/03/2024", "Saldo anterior", "100,00"),
		},
	}
	doc := &entity.Document{
		Text:  b.b.String(),
		Pages: []entity.Page{{Tables: []entity.Table{table}}},
	}

	txs := ExtractFromTables(doc, tablesRef)
	assert.Empty(t, txs, "rows without date, without amount, or summary-shaped must be dropped")
}

func TestExtractFromTablesParensForceNegative(t *testing.T) {
	var b docBuilder
	table := entity.Table{
		BodyRows: []entity.TableRow{
			b.row("15/03/2024", "PAGAMENTO SERVICO", "(25,00)"),
		},
	}
	doc := &entity.Document{
		Text:  b.b.String(),
		Pages: []entity.Page{{Tables: []entity.Table{table}}},
	}

	txs := ExtractFromTables(doc, tablesRef)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].Amount)
	assert.InDelta(t, -25.0, *txs[0].Amount, 0.0001)
}

func TestResolveTextClampsOutOfRange(t *testing.T) {
	doc := &entity.Document{Text: "hello"}
	anchor := entity.TextAnchor{Segments: []entity.TextSegment{{Start: 2, End: 99}}}
	assert.Equal(t, "llo", doc.ResolveText(anchor))

	anchor = entity.TextAnchor{Segments: []entity.TextSegment{{Start: -3, End: 2}}}
	assert.Equal(t, "he", doc.ResolveText(anchor))
}
