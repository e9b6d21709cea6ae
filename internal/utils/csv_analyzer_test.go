package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		input    string
		expected rune
	}{
		{"number;oem\nA;B", ';'},
		{"number,oem\nA,B", ','},
		{"number;oem\nA;1,5", ','},
		{"number", ','},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DetectDelimiter(tt.input), tt.input)
	}
}

func TestParseCSVRows_Semicolon(t *testing.T) {
	input := "number;oem;price\r\n\"0445-110\";'ABC';4200\r\n\r\n;X1\r\n"

	rows, analysis, err := ParseCSVRows(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, ';', analysis.Delimiter)
	assert.Equal(t, "utf-8", analysis.Encoding)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]string{"number": "0445-110", "oem": "ABC", "price": "4200"}, rows[0])
	assert.Equal(t, map[string]string{"number": "", "oem": "X1", "price": ""}, rows[1])
}

func TestParseCSVRows_QuotedCommas(t *testing.T) {
	input := "id,number,cross\n1,A-1,\"B-2|C,3\"\n"

	rows, _, err := ParseCSVRows(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "B-2|C,3", rows[0]["cross"])
}

func TestParseCSVRows_BOMAndWindows1251(t *testing.T) {
	encoded, err := charmap.Windows1251.NewEncoder().String("number;manufacturer\nA1;Бош\n")
	require.NoError(t, err)

	rows, analysis, err := ParseCSVRows(strings.NewReader(encoded))
	require.NoError(t, err)
	assert.Equal(t, "windows-1251", analysis.Encoding)
	require.Len(t, rows, 1)
	assert.Equal(t, "Бош", rows[0]["manufacturer"])

	rows, _, err = ParseCSVRows(strings.NewReader("\ufeffnumber\nA1\n"))
	require.NoError(t, err)
	assert.Equal(t, "A1", rows[0]["number"])
}

func TestParseCSVRows_Empty(t *testing.T) {
	rows, _, err := ParseCSVRows(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestNormalizeNumericValue(t *testing.T) {
	assert.Equal(t, "4200.50", NormalizeNumericValue("4 200,50"))
	assert.Equal(t, "1.5", NormalizeNumericValue("'1.5'"))
	assert.Equal(t, "1,000.5", NormalizeNumericValue("1,000.5"))
	assert.Equal(t, "", NormalizeNumericValue("  "))
}
