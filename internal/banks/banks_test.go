package banks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/entity"
)

var parseRef = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"cgd full name", "CAIXA GERAL DE DEPÓSITOS\nExtrato Combinado", "CGD", true},
		{"cgd app name", "o seu extrato Caixadirecta", "CGD", true},
		{"millennium", "Millennium bcp - Extrato de Conta", "MILLENNIUM", true},
		{"itau", "Itaú Unibanco S.A.\nExtrato", "ITAU", true},
		{"nubank", "nubank\nFatura de março", "NUBANK", true},
		{"unknown bank", "Banco Desconhecido\nExtrato", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, ok := Detect(tc.text)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.want, p.Name)
		})
	}
}

func TestParseCGDStatement(t *testing.T) {
	doc := &entity.Document{Text: "CAIXA GERAL DE DEPOSITOS\n" +
		"01.03.2024 01.03.2024 COMPRA CONTINENTE MATOSINHOS 45,90- 1.954,10\n" +
		"05.03.2024 05.03.2024 TRF ORDENADO EMPRESA LDA 1.500,00 3.454,10\n" +
		"linha sem formato\n"}

	p, ok := Detect(doc.Text)
	require.True(t, ok)
	assert.Equal(t, constants.DocTypeBankStatement, p.Kind)

	txs := p.Parse(doc, parseRef)
	require.Len(t, txs, 2)

	assert.Equal(t, "2024-03-01", txs[0].Date)
	assert.Equal(t, "COMPRA CONTINENTE MATOSINHOS", txs[0].Description)
	require.NotNil(t, txs[0].Amount)
	assert.InDelta(t, -45.90, *txs[0].Amount, 0.0001)

	assert.Equal(t, "2024-03-05", txs[1].Date)
	require.NotNil(t, txs[1].Amount)
	assert.InDelta(t, 1500.00, *txs[1].Amount, 0.0001)
}

func TestParseMillenniumStatement(t *testing.T) {
	doc := &entity.Document{Text: "Millennium bcp\n" +
		"15/03/2024 15/03/2024 PAGAMENTO SERVICOS EDP -78,32 921,68\n" +
		"20/03/2024 20/03/2024 DEPOSITO NUMERARIO 200,00 1.121,68\n"}

	p, ok := Detect(doc.Text)
	require.True(t, ok)
	txs := p.Parse(doc, parseRef)
	require.Len(t, txs, 2)
	require.NotNil(t, txs[0].Amount)
	assert.InDelta(t, -78.32, *txs[0].Amount, 0.0001)
	assert.Equal(t, "PAGAMENTO SERVICOS EDP", txs[0].Description)
	require.NotNil(t, txs[1].Amount)
	assert.InDelta(t, 200.00, *txs[1].Amount, 0.0001)
}

func TestParseItauStatementYearlessDates(t *testing.T) {
	doc := &entity.Document{Text: "Itaú Unibanco\n" +
		"02/05 PIX TRANSF RECEBIDA 350,00\n" +
		"10/05/2024 SAQUE 24H -100,00\n"}

	p, ok := Detect(doc.Text)
	require.True(t, ok)
	txs := p.Parse(doc, parseRef)
	require.Len(t, txs, 2)
	assert.Equal(t, "2024-05-02", txs[0].Date)
	assert.Equal(t, "2024-05-10", txs[1].Date)
	require.NotNil(t, txs[1].Amount)
	assert.InDelta(t, -100.00, *txs[1].Amount, 0.0001)
}

func TestParseNubankBillSigns(t *testing.T) {
	doc := &entity.Document{Text: "nubank\n" +
		"05 MAR Uber *Trip 12,50\n" +
		"08 MAR Pagamento recebido 340,00\n" +
		"12 MAR Restaurante Sabor 89,90\n"}

	p, ok := Detect(doc.Text)
	require.True(t, ok)
	assert.Equal(t, constants.DocTypeCreditCard, p.Kind)

	txs := p.Parse(doc, parseRef)
	require.Len(t, txs, 3)

	// purchases are negative, the bill payment positive
	require.NotNil(t, txs[0].Amount)
	assert.InDelta(t, -12.50, *txs[0].Amount, 0.0001)
	require.NotNil(t, txs[1].Amount)
	assert.InDelta(t, 340.00, *txs[1].Amount, 0.0001)
	require.NotNil(t, txs[2].Amount)
	assert.InDelta(t, -89.90, *txs[2].Amount, 0.0001)
}

func TestDetectStore(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		store string
		found bool
	}{
		{
			"known chain",
			"CONTINENTE MATOSINHOS\nNIF 500829993\nFatura Simplificada",
			"CONTINENTE", true,
		},
		{
			"unknown chain falls back to generic",
			"MERCEARIA DO BAIRRO\nContribuinte: 501234567\nTotal a pagar 12,30",
			GenericStore, true,
		},
		{
			"bank shaped text disqualified",
			"Extrato de Conta\nNIF 501234567\nSaldo anterior 100,00",
			"", false,
		},
		{
			"no fiscal markers",
			"LIDL AMADORA\nBANANA 1,99",
			"", false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, ok := DetectStore(tc.text)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.store, store)
		})
	}
}
