package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodePayload struct {
	DocType      string `json:"doc_type"`
	Transactions []struct {
		Date        string  `json:"date"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	} `json:"transactions"`
}

func TestDecodeStrictJSON(t *testing.T) {
	raw := `{"doc_type":"bank_statement","transactions":[{"date":"2024-03-01","description":"COMPRA","amount":-45.9}]}`
	var out decodePayload
	require.NoError(t, Decode(raw, &out))
	assert.Equal(t, "bank_statement", out.DocType)
	require.Len(t, out.Transactions, 1)
	assert.InDelta(t, -45.9, out.Transactions[0].Amount, 0.0001)
}

func TestDecodeStripsFencesAndProse(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"doc_type\":\"receipt\",\"transactions\":[]}\n```\nLet me know if you need anything else."
	var out decodePayload
	require.NoError(t, Decode(raw, &out))
	assert.Equal(t, "receipt", out.DocType)
}

func TestDecodeFenceWithoutLanguageTag(t *testing.T) {
	raw := "```\n{\"doc_type\":\"receipt\",\"transactions\":[]}\n```"
	var out decodePayload
	require.NoError(t, Decode(raw, &out))
	assert.Equal(t, "receipt", out.DocType)
}

func TestDecodeRepairsTruncatedArray(t *testing.T) {
	// cut off mid-way through the second element; the first must survive
	raw := `{"doc_type":"bank_statement","transactions":[` +
		`{"date":"2024-03-01","description":"COMPRA CONTINENTE","amount":-45.9},` +
		`{"date":"2024-03-02","descri`
	var out decodePayload
	require.NoError(t, Decode(raw, &out))
	require.Len(t, out.Transactions, 1)
	assert.Equal(t, "COMPRA CONTINENTE", out.Transactions[0].Description)
}

func TestDecodeRepairsTruncatedInsideString(t *testing.T) {
	raw := `{"doc_type":"receipt","transactions":[` +
		`{"date":"2024-03-01","description":"PAO","amount":-1},` +
		`{"date":"2024-03-02","description":"LEITE MEIO GOR`
	var out decodePayload
	require.NoError(t, Decode(raw, &out))
	require.Len(t, out.Transactions, 1)
	assert.Equal(t, "PAO", out.Transactions[0].Description)
}

func TestDecodeTruncatedBareArray(t *testing.T) {
	raw := `[{"description":"AGUA","total":0.5},{"description":"LEI`
	var items []ReceiptItemJSON
	require.NoError(t, Decode(raw, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "AGUA", items[0].Description)
}

func TestDecodeMalformedNotTruncated(t *testing.T) {
	var out decodePayload
	err := Decode(`{"doc_type": bank_statement}`, &out)
	assert.Error(t, err)
}

func TestDecodeNoCleanCutFails(t *testing.T) {
	// truncated before any array element completed: nothing to rewind to
	var out decodePayload
	err := Decode(`{"doc_type":"receipt","transactions":[{"date":"2024`, &out)
	assert.Error(t, err)
}

func TestDecodeEmptyOutputFails(t *testing.T) {
	var out decodePayload
	assert.Error(t, Decode("", &out))
	assert.Error(t, Decode("I could not find any transactions.", &out))
}
