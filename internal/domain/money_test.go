package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "4.00 tk", FormatAmount(400))
	assert.Equal(t, "1.50 tk", FormatAmount(150))
	assert.Equal(t, "0.00 tk", FormatAmount(0))
	assert.Equal(t, "1234.56 tk", FormatAmount(123456))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"100", 10000},
		{"15.5", 1550},
		{"  20 ", 2000},
		{"0.01", 1},
		{"3.999", 400},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "abc", "-5", "1,5", "12tk"} {
		_, err := ParseAmount(input)
		assert.Error(t, err, "input %q", input)
	}
}
