package llm

// StatementSchema is the JSON schema every statement extraction response must
// satisfy before the pipeline will accept it.
func StatementSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"doc_type", "transactions"},
		"properties": map[string]any{
			"doc_type": map[string]any{
				"type": "string",
				"enum": []any{"receipt", "credit_card", "bank_statement"},
			},
			"transactions": map[string]any{
				"type":  "array",
				"items": transactionSchema(),
			},
		},
	}
}

func transactionSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"date", "description", "amount"},
		"properties": map[string]any{
			"date": map[string]any{
				"type":    "string",
				"pattern": `^\d{4}-\d{2}-\d{2}$`,
			},
			"description": map[string]any{
				"type":      "string",
				"minLength": 1,
			},
			"amount":   map[string]any{"type": "number"},
			"category": map[string]any{"type": "string"},
		},
	}
}

// ReceiptItemsSchema validates the receipt cleanup response, a bare array of
// normalized line items.
func ReceiptItemsSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []any{"description"},
			"properties": map[string]any{
				"code":        map[string]any{"type": "string"},
				"description": map[string]any{"type": "string", "minLength": 1},
				"quantity":    map[string]any{"type": "number"},
				"unit_price":  map[string]any{"type": "number"},
				"total":       map[string]any{"type": "number"},
			},
		},
	}
}
