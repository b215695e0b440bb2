// Package price renders storefront Money values for display.
package price

import (
	"fmt"
	"strings"

	"inkblot-storefront/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DisplayLocale is the fixed locale prices are rendered in.
var DisplayLocale = language.BritishEnglish

// Parse converts the decimal string of m into a decimal value and resolves
// its currency unit.
func Parse(m domain.Money) (decimal.Decimal, currency.Unit, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(m.Amount))
	if err != nil {
		return decimal.Decimal{}, currency.Unit{}, fmt.Errorf("parse amount %q: %w", m.Amount, err)
	}
	unit, err := currency.ParseISO(strings.TrimSpace(m.CurrencyCode))
	if err != nil {
		return decimal.Decimal{}, currency.Unit{}, fmt.Errorf("parse currency %q: %w", m.CurrencyCode, err)
	}
	return amount, unit, nil
}

// Format renders m in DisplayLocale, e.g. "£1,234.50". Input that Parse
// rejects is rendered verbatim as "<amount> <code>".
func Format(m domain.Money) string {
	amount, unit, err := Parse(m)
	if err != nil {
		return strings.TrimSpace(m.Amount + " " + m.CurrencyCode)
	}

	scale, _ := currency.Standard.Rounding(unit)
	rounded := amount.Round(int32(scale))

	p := message.NewPrinter(DisplayLocale)
	symbol := p.Sprint(currency.Symbol(unit))
	digits := p.Sprint(number.Decimal(rounded.Abs().InexactFloat64(), number.Scale(scale)))

	if rounded.IsNegative() {
		return "-" + symbol + digits
	}
	return symbol + digits
}
