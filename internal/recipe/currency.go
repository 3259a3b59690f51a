// Package recipe renders saved compositions for the bench: plain-text
// recipes, scaled production batches, CSV catalogs and full backups.
package recipe

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultCurrency is used when no preference is stored.
const DefaultCurrency = "USD"

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"CNY": "¥",
	"INR": "₹",
	"AUD": "$",
	"CAD": "$",
	"CHF": "Fr",
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
	"SGD": "$",
	"HKD": "$",
	"NZD": "$",
	"KRW": "₩",
	"MXN": "$",
	"BRL": "R$",
	"ZAR": "R",
	"RUB": "₽",
}

// symbolAfter lists currencies written as "12.00 kr".
var symbolAfter = []string{"SEK", "NOK", "DKK"}

// Currencies returns the supported currency codes in sorted order.
func Currencies() []string {
	codes := make([]string, 0, len(currencySymbols))
	for code := range currencySymbols {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// KnownCurrency reports whether code has a symbol.
func KnownCurrency(code string) bool {
	_, ok := currencySymbols[strings.ToUpper(code)]
	return ok
}

// Symbol returns the display symbol for code, falling back to "$".
func Symbol(code string) string {
	if s, ok := currencySymbols[strings.ToUpper(code)]; ok {
		return s
	}
	return "$"
}

// FormatPrice renders amount with two decimals and the currency symbol.
func FormatPrice(amount float64, currency string) string {
	formatted := fmt.Sprintf("%.2f", amount)
	if slices.Contains(symbolAfter, strings.ToUpper(currency)) {
		return formatted + " " + Symbol(currency)
	}
	return Symbol(currency) + formatted
}
