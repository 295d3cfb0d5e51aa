package constants

// DocType is the canonical document classification.
type DocType string

// Stable values (store these exact strings in DB).
const (
	DocTypeReceipt       DocType = "receipt"
	DocTypeCreditCard    DocType = "credit_card"
	DocTypeBankStatement DocType = "bank_statement"
)

// ClassPriority orders document classes from most to least specific.
// Used to break ties when keyword scores are equal.
var ClassPriority = []DocType{DocTypeReceipt, DocTypeCreditCard, DocTypeBankStatement}

func (d DocType) Valid() bool {
	switch d {
	case DocTypeReceipt, DocTypeCreditCard, DocTypeBankStatement:
		return true
	}
	return false
}
