package settings

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Formatter renders money and dates the way a tenant configured them.
type Formatter struct {
	Symbol          string
	SymbolPosition  string
	SymbolSpace     bool
	Decimals        int32
	DecimalSep      string
	ThousandsSep    string
	DateLayout      string
	DefaultCurrency string
}

func NewFormatter(values map[string]string) Formatter {
	get := func(key string) string {
		if v, ok := values[key]; ok && v != "" {
			return v
		}
		return Defaults[key]
	}
	decimals, err := strconv.Atoi(get(KeyDecimalFormat))
	if err != nil || decimals < 0 || decimals > 6 {
		decimals = 2
	}
	space, _ := strconv.ParseBool(get(KeyCurrencySymbolSpace))
	thousands, ok := values[KeyThousandsSeparator]
	if !ok {
		thousands = Defaults[KeyThousandsSeparator]
	}
	return Formatter{
		Symbol:          get(KeyCurrencySymbol),
		SymbolPosition:  get(KeyCurrencySymbolPosition),
		SymbolSpace:     space,
		Decimals:        int32(decimals),
		DecimalSep:      get(KeyDecimalSeparator),
		ThousandsSep:    thousands,
		DateLayout:      PHPDateLayout(get(KeyDateFormat)),
		DefaultCurrency: get(KeyDefaultCurrency),
	}
}

func (f Formatter) Money(amount decimal.Decimal) string {
	number := f.Number(amount)
	sep := ""
	if f.SymbolSpace {
		sep = " "
	}
	if f.SymbolPosition == SymbolAfter {
		return number + sep + f.Symbol
	}
	return f.Symbol + sep + number
}

func (f Formatter) Number(amount decimal.Decimal) string {
	fixed := amount.StringFixed(f.Decimals)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	if f.ThousandsSep != "" && len(intPart) > 3 {
		var b strings.Builder
		lead := len(intPart) % 3
		if lead > 0 {
			b.WriteString(intPart[:lead])
		}
		for i := lead; i < len(intPart); i += 3 {
			if b.Len() > 0 {
				b.WriteString(f.ThousandsSep)
			}
			b.WriteString(intPart[i : i+3])
		}
		intPart = b.String()
	}

	out := intPart
	if fracPart != "" {
		out += f.DecimalSep + fracPart
	}
	if negative {
		out = "-" + out
	}
	return out
}

func (f Formatter) Date(t time.Time) string {
	return t.Format(f.DateLayout)
}

var phpDateTokens = map[rune]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'n': "1",
	'd': "02",
	'j': "2",
	'M': "Jan",
	'F': "January",
	'D': "Mon",
	'l': "Monday",
	'H': "15",
	'h': "03",
	'i': "04",
	's': "05",
	'A': "PM",
	'a': "pm",
}

// PHPDateLayout converts the stored date format tokens (Y-m-d, d/m/Y, ...)
// into a Go time layout. Unknown characters are copied through.
func PHPDateLayout(format string) string {
	var b strings.Builder
	for _, r := range format {
		if layout, ok := phpDateTokens[r]; ok {
			b.WriteString(layout)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
