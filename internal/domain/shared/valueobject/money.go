package valueobject

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	UZS Currency = "UZS" // Uzbek sum (default)
	USD Currency = "USD"
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = UZS

// MoneyScale is the number of decimal places a price may carry.
const MoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

// FormatCurrency renders an amount rounded to whole units with locale digit
// grouping, e.g. "1,250,000 UZS" (en) or "1 250 000 so'm" (uz).
func FormatCurrency(amount decimal.Decimal, lang language.Tag) string {
	p := message.NewPrinter(lang)
	whole := amount.Round(0).IntPart()
	base, _ := lang.Base()
	if base.String() == "uz" {
		return p.Sprintf("%d so'm", whole)
	}
	return p.Sprintf("%d %s", whole, DefaultCurrency)
}

// ProfitMargin returns profit as a percentage of revenue rounded to one decimal.
// A zero revenue yields a zero margin.
func ProfitMargin(profit, revenue decimal.Decimal) decimal.Decimal {
	return SafeDivide(profit, revenue).Mul(hundred).Round(1)
}

// SafeDivide returns a / b, or zero when b is zero.
func SafeDivide(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// HasValidScale reports whether d carries no more than MoneyScale decimal places.
func HasValidScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}
