package core

// convert.go provides scalar coercion for untrusted spreadsheet cells.
//
// These functions handle the messy reality of user-provided data:
//   - Surrounding whitespace and Unicode composition differences
//   - Thousands separators in counts ("1,200")
//   - Accounting-style negatives ("(12)")
//   - Excel formula prefixes (="value")
//   - Numbers that arrive as strings, json.Number, or native Go numbers

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// thousandsRegex matches a number grouped in threes: "1,200" or "12,345.6".
var thousandsRegex = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)

// CleanString trims whitespace, strips a spreadsheet formula wrapper and
// normalizes to NFC so visually identical values compare equal.
// Returns "" for input that is blank after cleanup.
func CleanString(s string) string {
	s = strings.TrimSpace(s)

	// Remove Excel text-formula wrapper ="..."
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}

	return norm.NFC.String(s)
}

// ToNumeric coerces v to a float64.
// Accepts strings (with thousands separators and accounting negatives),
// json.Number and native numbers. Booleans, NaN and infinities are rejected.
func ToNumeric(v any) (float64, bool) {
	switch x := v.(type) {
	case string:
		return parseNumericString(x)
	case json.Number:
		return parseNumericString(x.String())
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	default:
		return 0, false
	}
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Detect negative accounting format "(123)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	// Thousands separators, including the narrow no-break space, are only
	// dropped when every group has three digits. "12,5" and "1,2,3" fail.
	s = strings.ReplaceAll(s, "\u202f", ",")
	s = strings.ReplaceAll(s, "\u00a0", ",")
	if strings.Contains(s, ",") {
		if !thousandsRegex.MatchString(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
