package transformer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name string
		cell interface{}
		want float64
		ok   bool
	}{
		{"percent text", "38.50%", 38.5, true},
		{"thousands", "1,234", 1234, true},
		{"spaced", " 1 234 ", 1234, true},
		{"float", 12.5, 12.5, true},
		{"int", 7, 7, true},
		{"json number", json.Number("42"), 42, true},
		{"zero", "0", 0, true},
		{"trailing text", "12 opens", 12, true},
		{"negative text", "-5", 0, false},
		{"negative number", -0.1, 0, false},
		{"words", "pending", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceNumber(tt.cell)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceNumber_Placeholders(t *testing.T) {
	for _, cell := range []interface{}{"", nil, "-", "N/A", "na", "null", "  NULL ", " - "} {
		_, ok := CoerceNumber(cell)
		assert.False(t, ok, "cell %#v", cell)
	}
}

func TestCoerceNumber_Idempotent(t *testing.T) {
	for _, cell := range []interface{}{"38.50%", "1,234", 0.1, "7e2", 3, ".5"} {
		first, ok := CoerceNumber(cell)
		if !assert.True(t, ok, "cell %#v", cell) {
			continue
		}
		second, ok := CoerceNumber(FormatNumber(first))
		assert.True(t, ok)
		assert.Equal(t, first, second)
	}
}

func TestCoerceInt(t *testing.T) {
	assert.Equal(t, 1234, CoerceInt("1,234"))
	assert.Equal(t, 40, CoerceInt("40 leads"))
	assert.Equal(t, 12, CoerceInt(12.9))
	assert.Equal(t, 0, CoerceInt("-3"))
	assert.Equal(t, 0, CoerceInt("-"))
	assert.Equal(t, 0, CoerceInt(nil))
	assert.Equal(t, 0, CoerceInt("abc"))
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "38.5%", FormatRate(" 38.5% "))
	assert.Equal(t, "38.5%", FormatRate(38.5))
	assert.Equal(t, "12%", FormatRate("12"))
	assert.Equal(t, "0%", FormatRate(""))
	assert.Equal(t, "0%", FormatRate("-"))
	assert.Equal(t, "0%", FormatRate(nil))
	assert.Equal(t, "0%", FormatRate("pending"))
	assert.Equal(t, "0%", FormatRate(-4))
}
