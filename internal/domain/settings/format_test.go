package settings

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatterMoney(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		amount string
		want   string
	}{
		{name: "defaults", values: map[string]string{}, amount: "12345.5", want: "$12,345.50"},
		{
			name: "euro after with space",
			values: map[string]string{
				KeyCurrencySymbol:         "€",
				KeyCurrencySymbolPosition: SymbolAfter,
				KeyCurrencySymbolSpace:    "true",
				KeyDecimalSeparator:       ",",
				KeyThousandsSeparator:     ".",
			},
			amount: "1234567.891",
			want:   "1.234.567,89 €",
		},
		{name: "no grouping", values: map[string]string{KeyThousandsSeparator: ""}, amount: "2850", want: "$2850.00"},
		{name: "zero decimals", values: map[string]string{KeyDecimalFormat: "0"}, amount: "999.6", want: "$1,000"},
		{name: "negative", values: map[string]string{}, amount: "-1500", want: "$-1,500.00"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := NewFormatter(tc.values)
			assert.Equal(t, tc.want, f.Money(decimal.RequireFromString(tc.amount)))
		})
	}
}

func TestPHPDateLayout(t *testing.T) {
	day := time.Date(2026, time.March, 7, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "2026-03-07", day.Format(PHPDateLayout("Y-m-d")))
	assert.Equal(t, "07/03/2026", day.Format(PHPDateLayout("d/m/Y")))
	assert.Equal(t, "Mar 7, 2026", day.Format(PHPDateLayout("M j, Y")))
	assert.Equal(t, "07/03/2026", NewFormatter(map[string]string{KeyDateFormat: "d/m/Y"}).Date(day))
}
