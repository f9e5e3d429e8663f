package chart

import (
	"fmt"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// TooltipFunc renders the hover text for one data point.
type TooltipFunc func(label string, raw float64) string

var (
	printerOnce sync.Once
	printer     *message.Printer
)

func numberPrinter() *message.Printer {
	printerOnce.Do(func() {
		printer = message.NewPrinter(language.English)
	})
	return printer
}

// FormatValue renders a raw value with grouping and at most two decimals.
func FormatValue(v float64) string {
	return numberPrinter().Sprint(number.Decimal(finite(v), number.MaxFractionDigits(2)))
}

// ShareTooltip renders "label: value (pct%)" against the sum of values.
func ShareTooltip(values []float64) TooltipFunc {
	snapshot := append([]float64(nil), values...)
	return func(label string, raw float64) string {
		return fmt.Sprintf("%s: %s (%.2f%%)", label, FormatValue(raw), Percentage(raw, snapshot))
	}
}

// LabelTooltip renders "label: value".
func LabelTooltip() TooltipFunc {
	return func(label string, raw float64) string {
		return fmt.Sprintf("%s: %s", label, FormatValue(raw))
	}
}

// PrefixTooltip renders "prefix: value", ignoring the category label.
func PrefixTooltip(prefix string) TooltipFunc {
	return func(_ string, raw float64) string {
		return fmt.Sprintf("%s: %s", prefix, FormatValue(raw))
	}
}

// Tooltips evaluates fn for every point of the series at index series. Missing
// points are skipped.
func (s Spec) Tooltips(series int, fn TooltipFunc) []string {
	if fn == nil || series < 0 || series >= len(s.Series) {
		return nil
	}
	out := make([]string, 0, len(s.Labels))
	for i, label := range s.Labels {
		value, ok := s.ValueAt(series, i)
		if !ok {
			break
		}
		out = append(out, fn(label, value))
	}
	return out
}
