package datasets

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"NaN":  {},
	"nan":  {},
	"NULL": {},
	"null": {},
}

// Stats summarizes a parsed table.
type Stats struct {
	Rows     int
	Columns  int
	Missing  int
	Features []Feature
}

// Table is a parsed CSV document.
type Table struct {
	Header  []string
	Records [][]string
}

// Parse reads CSV content whose first row is the header. Every record must
// have as many fields as the header.
func Parse(content []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = 0

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
	}

	return &Table{Header: header, Records: records}, nil
}

// Bytes emits the table with \n line endings.
func (t *Table) Bytes() []byte {
	return t.head(len(t.Records))
}

// Head emits the header and the first n records.
func (t *Table) Head(n int) []byte {
	return t.head(min(max(n, 0), len(t.Records)))
}

func (t *Table) head(n int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Write(t.Header)
	w.WriteAll(t.Records[:n])
	return buf.Bytes()
}

// Stats computes row, column and per-column distinct and missing counts.
func (t *Table) Stats() Stats {
	s := Stats{
		Rows:     len(t.Records),
		Columns:  len(t.Header),
		Features: make([]Feature, len(t.Header)),
	}

	seen := make([]map[string]struct{}, len(t.Header))
	for i, name := range t.Header {
		s.Features[i] = Feature{ID: i, Name: name}
		seen[i] = make(map[string]struct{})
	}

	for _, rec := range t.Records {
		for i, v := range rec {
			if _, ok := missingTokens[v]; ok {
				s.Features[i].Missing++
				s.Missing++
				continue
			}
			seen[i][v] = struct{}{}
		}
	}

	for i := range s.Features {
		s.Features[i].Unique = len(seen[i])
	}
	return s
}

// Canonicalize parses content and returns its canonical bytes and statistics.
func Canonicalize(content []byte) ([]byte, Stats, error) {
	t, err := Parse(content)
	if err != nil {
		return nil, Stats{}, err
	}
	return t.Bytes(), t.Stats(), nil
}
