package valueobject

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var thousand = decimal.NewFromInt(1000)

// compactSuffixes maps a base language to its thousand/million/billion/trillion suffixes.
var compactSuffixes = map[string][]string{
	"en": {"K", "M", "B", "T"},
	"uz": {" ming", " mln", " mlrd", " trln"},
	"ru": {" тыс.", " млн", " млрд", " трлн"},
}

// CompactNumber formats v in compact notation with at most one fraction digit,
// e.g. 1500 -> "1.5K", 2500000 -> "2.5M" for English.
// Unknown languages fall back to the English suffixes.
func CompactNumber(v decimal.Decimal, lang language.Tag) string {
	base, _ := lang.Base()
	suffixes, ok := compactSuffixes[base.String()]
	if !ok {
		suffixes = compactSuffixes["en"]
	}

	neg := v.IsNegative()
	scaled := v.Abs().Round(1)
	unit := -1
	for unit+1 < len(suffixes) && scaled.GreaterThanOrEqual(thousand) {
		scaled = scaled.Div(thousand).Round(1)
		unit++
	}
	if neg {
		scaled = scaled.Neg()
	}

	f, _ := scaled.Float64()
	p := message.NewPrinter(lang)
	out := p.Sprint(number.Decimal(f, number.MaxFractionDigits(1)))
	if unit < 0 {
		return out
	}
	return out + suffixes[unit]
}
