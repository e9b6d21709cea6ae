package utils

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// CSVAnalysisResult describes how an uploaded table was read
type CSVAnalysisResult struct {
	Delimiter rune   `json:"delimiter"` // ',' or ';'
	Encoding  string `json:"encoding"`  // "utf-8" or "windows-1251"
	Columns   int    `json:"columns"`
	Rows      int    `json:"rows"`
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText returns the upload as UTF-8 text. Spreadsheets saved by a
// Ukrainian-locale Excel arrive as Windows-1251; anything that is not valid
// UTF-8 is decoded as such.
func DecodeText(content []byte) (string, string, error) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), "utf-8", nil
	}

	decoded, _, err := transform.Bytes(charmap.Windows1251.NewDecoder(), content)
	if err != nil {
		return "", "", fmt.Errorf("failed to decode windows-1251 text: %w", err)
	}
	return string(decoded), "windows-1251", nil
}

// DetectDelimiter picks ';' when the text has semicolons and no commas, else ','
func DetectDelimiter(text string) rune {
	if strings.Contains(text, ";") && !strings.Contains(text, ",") {
		return ';'
	}
	return ','
}

// ParseCSVWithDetectedDelimiter reads every record using the detected delimiter
func ParseCSVWithDetectedDelimiter(reader io.Reader) ([][]string, *CSVAnalysisResult, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read content: %w", err)
	}

	text, encoding, err := DecodeText(content)
	if err != nil {
		return nil, nil, err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	analysis := &CSVAnalysisResult{
		Delimiter: DetectDelimiter(text),
		Encoding:  encoding,
	}

	csvReader := csv.NewReader(strings.NewReader(text))
	csvReader.Comma = analysis.Delimiter
	csvReader.FieldsPerRecord = -1 // rows may be ragged
	csvReader.LazyQuotes = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, analysis, fmt.Errorf("failed to parse CSV: %w", err)
	}

	if len(records) > 0 {
		analysis.Columns = len(records[0])
		analysis.Rows = len(records) - 1
	}

	return records, analysis, nil
}

// ParseCSVRows parses a headed table into one map per non-blank data row.
// Missing trailing cells become empty strings.
func ParseCSVRows(reader io.Reader) ([]map[string]string, *CSVAnalysisResult, error) {
	records, analysis, err := ParseCSVWithDetectedDelimiter(reader)
	if err != nil {
		return nil, analysis, err
	}
	if len(records) == 0 {
		return []map[string]string{}, analysis, nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = StripQuotes(h)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlankRecord(record) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(record) {
				row[h] = StripQuotes(record[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, analysis, nil
}

// StripQuotes trims whitespace and one pair of surrounding single or double quotes
func StripQuotes(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, `"`)
	value = strings.TrimSuffix(value, `"`)
	value = strings.TrimPrefix(value, `'`)
	value = strings.TrimSuffix(value, `'`)
	return strings.TrimSpace(value)
}

// NormalizeNumericValue turns "4 200,50" into "4200.50"; a lone comma is a decimal separator
func NormalizeNumericValue(value string) string {
	value = StripQuotes(value)
	value = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(value)

	if strings.Count(value, ",") == 1 && !strings.Contains(value, ".") {
		value = strings.Replace(value, ",", ".", 1)
	}

	return value
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
