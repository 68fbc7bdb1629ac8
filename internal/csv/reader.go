// Package csv decodes the semicolon-delimited ingest files produced by the
// document pipeline. Files carry a header row naming columns, may start
// with a UTF-8 byte order mark, and may have ragged rows (trailing fields
// simply missing). Rows are exposed as header-keyed records so importers
// address fields by column name rather than position.
package csv

import (
	"bufio"
	stdcsv "encoding/csv"
	"fmt"
	"io"
	"strings"
)

// HeaderIndex maps lowercased column names to their position in a row.
type HeaderIndex map[string]int

// Record is one decoded data row.
type Record struct {
	header HeaderIndex
	fields []string
}

// Get returns the trimmed value of the named column, or "" when the column
// is absent from the header or the row is too short to reach it.
func (r Record) Get(col string) string {
	pos, ok := r.header[strings.ToLower(col)]
	if !ok || pos >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[pos])
}

// Has reports whether the named column exists in the file header.
func (r Record) Has(col string) bool {
	_, ok := r.header[strings.ToLower(col)]
	return ok
}

// Reader streams records from a semicolon-delimited byte stream.
type Reader struct {
	cr     *stdcsv.Reader
	header HeaderIndex
	cols   []string
}

// NewReader wraps an ingest byte stream. The header row is consumed on the
// first call to Next.
func NewReader(r io.Reader) *Reader {
	br := bufio.NewReader(r)

	// Tolerate a UTF-8 BOM at the start of the stream.
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}

	cr := stdcsv.NewReader(br)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	return &Reader{cr: cr}
}

// Header returns the column names from the file header, available after the
// first call to Next.
func (r *Reader) Header() []string {
	return r.cols
}

// Next returns the next non-empty data row. It returns io.EOF when the
// stream is exhausted and a wrapped error when the stream itself fails.
func (r *Reader) Next() (Record, error) {
	if r.header == nil {
		if err := r.readHeader(); err != nil {
			return Record{}, err
		}
	}

	for {
		fields, err := r.cr.Read()
		if err == io.EOF {
			return Record{}, io.EOF
		}
		if err != nil {
			return Record{}, fmt.Errorf("reading row: %w", err)
		}

		if isBlank(fields) {
			continue
		}

		return Record{header: r.header, fields: fields}, nil
	}
}

func (r *Reader) readHeader() error {
	fields, err := r.cr.Read()
	if err == io.EOF {
		return fmt.Errorf("empty file: no header row")
	}
	if err != nil {
		return fmt.Errorf("reading header: %w", err)
	}

	r.header = make(HeaderIndex, len(fields))
	r.cols = make([]string, len(fields))
	for i, h := range fields {
		key := strings.ToLower(strings.TrimSpace(h))
		r.cols[i] = key
		r.header[key] = i
	}
	return nil
}

func isBlank(fields []string) bool {
	for _, v := range fields {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
