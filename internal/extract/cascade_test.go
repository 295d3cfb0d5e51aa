package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaraujo/finpipe/internal/entity"
)

var cascadeRef = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestCascadeOrder(t *testing.T) {
	names := make([]string, 0, 4)
	for _, s := range Cascade() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"entities", "tables", "lines", "text"}, names)
}

func TestTransactionsEntitiesWin(t *testing.T) {
	// entities and text both hold transactions; the structured strategy must win
	doc := &entity.Document{
		Text: "15/03/2024 COMPRA FARMACIA 12,50",
		Entities: []entity.Entity{
			txEntity(
				prop("date", "16/03/2024"),
				prop("description", "SUPERMERCADO DIA"),
				prop("amount", "30,00"),
			),
		},
	}

	txs, strategy := Transactions(doc, cascadeRef, nil)
	require.Len(t, txs, 1)
	assert.Equal(t, "entities", strategy)
	assert.Equal(t, "SUPERMERCADO DIA", txs[0].Description)
}

func TestTransactionsFallsThroughToText(t *testing.T) {
	doc := &entity.Document{Text: "15/03/2024 COMPRA FARMACIA 12,50"}

	txs, strategy := Transactions(doc, cascadeRef, nil)
	require.Len(t, txs, 1)
	assert.Equal(t, "text", strategy)
	assert.Equal(t, "2024-03-15", txs[0].Date)
}

func TestTransactionsFullMiss(t *testing.T) {
	doc := &entity.Document{Text: "Nada de interesse aqui"}

	txs, strategy := Transactions(doc, cascadeRef, nil)
	assert.Empty(t, txs)
	assert.Equal(t, "", strategy)
}

func TestTransactionsNilDocument(t *testing.T) {
	txs, strategy := Transactions(nil, cascadeRef, nil)
	assert.Empty(t, txs)
	assert.Equal(t, "", strategy)
}
