package constants

import (
	"strings"
)

type Category string

const (
	Groceries      Category = "Groceries"
	Restaurants    Category = "Restaurants"
	Transport      Category = "Transport"
	Housing        Category = "Housing"
	Utilities      Category = "Utilities"
	Health         Category = "Health"
	Shopping       Category = "Shopping"
	Subscriptions  Category = "Subscriptions"
	Travel         Category = "Travel"
	Salary         Category = "Salary"
	TransferCat    Category = "Transfer"
	FeesAndCharges Category = "FeesAndCharges"
	Other          Category = "Other"
)

var allCategories = []Category{
	Groceries,
	Restaurants,
	Transport,
	Housing,
	Utilities,
	Health,
	Shopping,
	Subscriptions,
	Travel,
	Salary,
	TransferCat,
	FeesAndCharges,
	Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

type categoryKeyword struct {
	keyword  string
	category Category
}

// keyword -> category, lowercase accent-free tokens matched against descriptions.
// Ordered slice so matching is deterministic when several keywords apply.
var categoryKeywords = []categoryKeyword{
	{"supermercado", Groceries},
	{"pingo doce", Groceries},
	{"continente", Groceries},
	{"mercadona", Groceries},
	{"mercado", Groceries},
	{"lidl", Groceries},
	{"aldi", Groceries},
	{"restaurante", Restaurants},
	{"pastelaria", Restaurants},
	{"cafe", Restaurants},
	{"combustivel", Transport},
	{"gasolina", Transport},
	{"uber", Transport},
	{"bolt", Transport},
	{"galp", Transport},
	{"metro", Transport},
	{"condominio", Housing},
	{"renda", Housing},
	{"eletricidade", Utilities},
	{"internet", Utilities},
	{"agua", Utilities},
	{"edp", Utilities},
	{"farmacia", Health},
	{"clinica", Health},
	{"hospital", Health},
	{"assinatura", Subscriptions},
	{"netflix", Subscriptions},
	{"spotify", Subscriptions},
	{"hotel", Travel},
	{"airbnb", Travel},
	{"voo", Travel},
	{"vencimento", Salary},
	{"ordenado", Salary},
	{"salario", Salary},
	{"transferencia", TransferCat},
	{"trf", TransferCat},
	{"comissao", FeesAndCharges},
	{"anuidade", FeesAndCharges},
	{"juros", FeesAndCharges},
}

// SuggestCategory maps a transaction description to a category by keyword.
// Returns Other when nothing matches.
func SuggestCategory(description string) Category {
	normalized := strings.ToLower(strings.TrimSpace(description))
	if normalized == "" {
		return Other
	}
	for _, kc := range categoryKeywords {
		if strings.Contains(normalized, kc.keyword) {
			return kc.category
		}
	}
	return Other
}

func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}
	return Other, false
}
