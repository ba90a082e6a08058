package formatter

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatDuration renders milliseconds as m:ss, or "--:--" when unknown.
//
// Seconds are rounded before being split into minutes, so 179600ms reads 3:00 rather than 2:60.
func FormatDuration(ms int) string {
	if ms <= 0 {
		return "--:--"
	}
	total := int(math.Round(float64(ms) / 1000))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatCount groups thousands with commas: 1234567 -> "1,234,567".
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatPercent renders p (0-100) with one decimal place and a percent sign.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// Truncate shortens s to at most width runes, marking the cut with an ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:width-1])) + "…"
}
