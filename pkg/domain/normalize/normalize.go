// Package normalize turns free-text component references and spreadsheet numbers into
// comparable keys and exact quantities. Every function here is pure and total: malformed
// input degrades to an empty key or a zero quantity instead of an error.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Key canonicalizes a component label: composed to NFC, all whitespace removed,
// upper-cased. Two labels refer to the same component iff their keys are equal.
func Key(text string) string {
	text = norm.NFC.String(text)
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// Quantity parses a human-typed number that may use either decimal-comma or
// decimal-point conventions.
//
// When both ',' and '.' occur, the separator that occurs last is the decimal point and
// the other one groups thousands ("1,234.56" and "2.000,50"). Otherwise ',' is the
// decimal point and '.' groups thousands ("1,5" and "1.000"). Blank or non-numeric
// input yields zero.
func Quantity(text string) decimal.Decimal {
	d, _ := TryQuantity(text)
	return d
}

// TryQuantity is Quantity that also reports whether the text held a number.
func TryQuantity(text string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	if lastComma >= 0 && lastDot >= 0 {
		if lastDot > lastComma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		}
	} else {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// NumericCell parses the raw value of a typed numeric spreadsheet cell. Such values are
// always written with a '.' decimal point, so the free-text convention of Quantity must
// not be applied to them. Anything that is not a plain number falls back to Quantity.
func NumericCell(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity(s)
	}
	return d
}

// NonNegative clamps negative quantities to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Fold lower-cases and trims free text for marker comparison.
func Fold(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

var forbiddenFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// SafeFilename strips characters that Windows and SharePoint refuse in file names and
// replaces spaces with underscores.
func SafeFilename(s string) string {
	s = strings.TrimSpace(s)
	s = forbiddenFilenameChars.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, " ", "_")
}
