package transformer

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"campaign-dashboard/internal/models"
)

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
)

// placeholders are cell texts that mean "no value" rather than zero.
var placeholders = []string{"-", "n/a", "na", "null"}

// CoerceNumber turns a raw cell into a non-negative number. It reports false
// for empty cells, placeholders, unparsable text and negative values.
// Strings may carry a percent sign, thousands separators and stray whitespace.
func CoerceNumber(cell interface{}) (float64, bool) {
	switch v := cell.(type) {
	case nil:
		return 0, false
	case float64:
		return validNumber(v)
	case float32:
		return validNumber(float64(v))
	case int:
		return validNumber(float64(v))
	case int64:
		return validNumber(float64(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return validNumber(f)
	case string:
		return coerceText(v)
	default:
		return coerceText(models.CellString(v))
	}
}

func coerceText(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || isPlaceholder(s) {
		return 0, false
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == '%' || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)

	m := leadingFloat.FindString(cleaned)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return validNumber(f)
}

func validNumber(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return f, true
}

func isPlaceholder(s string) bool {
	for _, p := range placeholders {
		if strings.EqualFold(s, p) {
			return true
		}
	}
	return false
}

// FormatNumber renders a coerced number so that CoerceNumber reads it back unchanged.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CoerceInt reads a count cell ("1,234", 12, "40 leads"). Anything unparsable
// or negative yields 0. Fractions are truncated.
func CoerceInt(cell interface{}) int {
	switch v := cell.(type) {
	case nil:
		return 0
	case float64, float32, int, int64, json.Number:
		f, ok := CoerceNumber(v)
		if !ok {
			return 0
		}
		return int(f)
	}

	s := strings.ReplaceAll(models.CellString(cell), ",", "")
	s = strings.TrimSpace(s)
	m := leadingInt.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// FormatRate renders a rate cell as percentage text. Text that already holds
// a percent sign passes through trimmed; numbers get "%" appended; anything
// else becomes "0%".
func FormatRate(cell interface{}) string {
	s := strings.TrimSpace(models.CellString(cell))
	if s == "" || s == "-" {
		return "0%"
	}
	if strings.Contains(s, "%") {
		return s
	}
	if f, ok := CoerceNumber(cell); ok {
		return FormatNumber(f) + "%"
	}
	return "0%"
}
