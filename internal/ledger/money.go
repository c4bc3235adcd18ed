package ledger

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Epsilon is the smallest amount rendered; anything at or below it is noise.
const Epsilon = 1e-5

// Money formats monetary amounts for a locale.
type Money struct {
	printer *message.Printer
}

// NewMoney builds a formatter for the BCP 47 locale, falling back to Finnish.
func NewMoney(locale string) Money {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.Finnish
	}
	return Money{printer: message.NewPrinter(tag)}
}

// Format renders v with two decimals and a euro suffix, or "" when |v| <= Epsilon.
func (m Money) Format(v float64) string {
	if math.Abs(v) <= Epsilon {
		return ""
	}
	return m.Amount(v) + " €"
}

// Amount renders v with two decimals and locale separators.
func (m Money) Amount(v float64) string {
	p := m.printer
	if p == nil {
		p = message.NewPrinter(language.Finnish)
	}
	return p.Sprintf("%.2f", v)
}
