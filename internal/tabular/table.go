// Package tabular reads the semicolon-delimited, Latin-1-encoded files
// published on the open-data portal into indexed tables. Column positions
// are resolved once per file against normalized headers, so year-to-year
// header drift in the source degrades to a lookup miss instead of a crash.
package tabular

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Table holds a parsed source file. Headers are uppercased and trimmed.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Read parses a semicolon-delimited, Latin-1-decoded stream. Malformed rows
// are skipped rather than failing the file; rows may have varying field
// counts. An empty stream yields an error.
func Read(r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, charmap.ISO8859_1.NewDecoder())

	cr := csv.NewReader(decoded)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}

	t := &Table{Headers: make([]string, len(header))}
	for i, h := range header {
		t.Headers[i] = strings.ToUpper(strings.TrimSpace(h))
	}

	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue // skip malformed row
			}
			return nil, err
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// Index returns the position of an exactly matching normalized header.
func (t *Table) Index(name string) (int, bool) {
	for i, h := range t.Headers {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Resolve returns the position of the first header containing any of the
// candidate tokens, trying candidates in order. This is the drift-tolerant
// lookup used for registry columns whose exact names vary between years.
func (t *Table) Resolve(candidates ...string) (int, bool) {
	for _, candidate := range candidates {
		for i, h := range t.Headers {
			if strings.Contains(h, candidate) {
				return i, true
			}
		}
	}
	return -1, false
}

// Field returns the trimmed value at column idx of row, or "" when the row
// is too short or the index was never resolved.
func Field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
