package extract

import (
	"strings"

	"golang.org/x/text/currency"
)

// currencySymbols maps the symbols the extractor leaves inside monetary
// strings to ISO 4217 codes. Ordered so multi-country symbols resolve to
// their most common reading.
var currencySymbols = []struct {
	symbol string
	code   string
}{
	{"US$", "USD"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"¥", "JPY"},
	{"₹", "INR"},
	{"₽", "RUB"},
	{"₩", "KRW"},
	{"$", "USD"},
}

// monetaryKeys are the fields worth scanning for a stray currency symbol
// when the currency field itself is empty.
var monetaryKeys = []string{"amount", "subtotal", "tax", "discount", "total"}

// normalizeCurrency canonicalizes a provided currency code, or infers one
// from symbols found in the monetary fields when the code is absent. A
// provided code that is valid ISO 4217 is returned in canonical form; an
// unrecognized non-empty code is kept uppercased rather than discarded.
func normalizeCurrency(code string, in map[string]any) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code != "" {
		if unit, err := currency.ParseISO(code); err == nil {
			return unit.String()
		}
		return code
	}

	for _, key := range monetaryKeys {
		if s, ok := rawField(in, key).(string); ok {
			if inferred := symbolToCode(s); inferred != "" {
				return inferred
			}
		}
	}
	if list, ok := rawField(in, "items").([]any); ok {
		for _, entry := range list {
			m, isMap := entry.(map[string]any)
			if !isMap {
				continue
			}
			li := lowerKeys(m)
			for _, key := range []string{"price", "total"} {
				if s, ok := itemField(li, key).(string); ok {
					if inferred := symbolToCode(s); inferred != "" {
						return inferred
					}
				}
			}
		}
	}
	return ""
}

func symbolToCode(s string) string {
	for _, cs := range currencySymbols {
		if strings.Contains(s, cs.symbol) {
			return cs.code
		}
	}
	return ""
}
