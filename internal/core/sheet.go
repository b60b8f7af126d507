package core

// sheet.go turns spreadsheet exports on disk into RawRecords for the CLI.
//
// CSV exports from Windows tools often start with a UTF-8 BOM and may carry
// invalid byte sequences from legacy encodings. Both are repaired before the
// header row is read. Blank lines are skipped without consuming a row index.

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Sheet formats accepted by ReadRows.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadRows decodes rows in the given format. JSON input is either an array of
// objects or an object with a "rows" array; numbers stay json.Number so the
// normalizer sees exactly what was written. CSV input uses its first
// non-blank line as the header and yields string cells.
func ReadRows(r io.Reader, format string) ([]RawRecord, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	switch strings.ToLower(format) {
	case FormatJSON:
		return readJSONRows(br)
	case FormatCSV:
		return readCSVRows(br)
	default:
		return nil, fmt.Errorf("unsupported sheet format %q", format)
	}
}

// FormatFromPath picks a sheet format from a file extension, defaulting to JSON.
func FormatFromPath(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return FormatCSV
	}
	return FormatJSON
}

func readJSONRows(r io.Reader) ([]RawRecord, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	var rows []RawRecord
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper struct {
			Rows []RawRecord `json:"rows"`
		}
		if err := decodeNumbers(trimmed, &wrapper); err != nil {
			return nil, fmt.Errorf("malformed JSON: %w", err)
		}
		rows = wrapper.Rows
	} else if err := decodeNumbers(trimmed, &rows); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	return rows, nil
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func readCSVRows(r io.Reader) ([]RawRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var header []string
	var rows []RawRecord
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed CSV: %w", err)
		}
		if isBlankRecord(record) {
			continue
		}

		if header == nil {
			header = make([]string, len(record))
			for i, h := range record {
				header[i] = CleanString(sanitizeCell(h))
			}
			continue
		}

		row := make(RawRecord, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(record) {
				row[name] = sanitizeCell(record[i])
			} else {
				row[name] = nil
			}
		}
		rows = append(rows, row)
	}

	if header == nil {
		return nil, errors.New("malformed CSV: no header row")
	}
	return rows, nil
}

// sanitizeCell replaces invalid UTF-8 bytes with U+FFFD.
func sanitizeCell(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "\uFFFD")
}

func isBlankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
