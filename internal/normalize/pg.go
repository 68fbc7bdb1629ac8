package normalize

import (
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// pg.go converts cleaned string fields to pgtype values. Empty input maps
// to the SQL NULL form (Valid: false) so optional columns pass through
// without sentinel values.

// ToPgText returns a pgtype.Text with whitespace normalized, NULL when empty.
func ToPgText(s string) pgtype.Text {
	s = Spaces(s)
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// ToPgDate parses a flexible-format date, NULL when empty or unparseable.
func ToPgDate(s string) pgtype.Date {
	t, ok := Date(s)
	if !ok {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// ToPgInt4 parses a base-10 integer, NULL when empty or unparseable.
func ToPgInt4(s string) pgtype.Int4 {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Int4{}
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(n), Valid: true}
}

// ToPgFloat8 parses a decimal number, NULL when empty or unparseable.
// Comma decimal separators are accepted ("12,5").
func ToPgFloat8(s string) pgtype.Float8 {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Float8{}
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: f, Valid: true}
}
