package byom

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// PriceFormatter renders amounts for display in one locale, e.g. "USD 5,700.00"
type PriceFormatter struct {
	printer *message.Printer
}

// NewPriceFormatter creates a formatter for a BCP 47 locale. An unparsable
// locale falls back to American English.
func NewPriceFormatter(locale string) *PriceFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.AmericanEnglish
	}
	return &PriceFormatter{printer: message.NewPrinter(tag)}
}

// Format renders amount with two decimals, grouped per the locale and
// prefixed with the ISO currency code
func (f *PriceFormatter) Format(amount decimal.Decimal, currency string) string {
	v := number.Decimal(amount.Round(2).InexactFloat64(), number.Scale(2))
	if currency == "" {
		return f.printer.Sprint(v)
	}
	return f.printer.Sprintf("%s %v", currency, v)
}
