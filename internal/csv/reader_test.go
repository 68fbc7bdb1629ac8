package csv

import (
	"io"
	"strings"
	"testing"
)

func readAll(t *testing.T, input string) []Record {
	t.Helper()

	r := NewReader(strings.NewReader(input))
	var out []Record
	for {
		rec, err := r.Next()
		if err == io.EOF {
			return out
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		out = append(out, rec)
	}
}

func TestReader(t *testing.T) {
	input := "carrier_type;carrier_name;carrier_tin;carrier_bp\n" +
		"Interurbano;Transportes Sur;12345678-5;BP001\n" +
		"\n" +
		";;;\n" +
		"Urbano;Buses Norte;7775777-5;BP002\n"

	recs := readAll(t, input)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2 (blank rows skipped)", len(recs))
	}

	if got := recs[0].Get("carrier_name"); got != "Transportes Sur" {
		t.Errorf("carrier_name = %q", got)
	}
	if got := recs[1].Get("carrier_bp"); got != "BP002" {
		t.Errorf("carrier_bp = %q", got)
	}
}

func TestReaderBOM(t *testing.T) {
	input := "\xEF\xBB\xBFplate;carrier_bp\nABCD12;BP001\n"

	recs := readAll(t, input)
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if got := recs[0].Get("plate"); got != "ABCD12" {
		t.Errorf("plate = %q (BOM should not corrupt first header)", got)
	}
}

func TestReaderRaggedRows(t *testing.T) {
	input := "a;b;c\n1;2\n3;4;5;6\n"

	recs := readAll(t, input)
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	// Missing trailing field reads as absent, not an error.
	if got := recs[0].Get("c"); got != "" {
		t.Errorf("short row Get(c) = %q, want empty", got)
	}
	if got := recs[0].Get("b"); got != "2" {
		t.Errorf("short row Get(b) = %q", got)
	}
	// Extra fields beyond the header are ignored.
	if got := recs[1].Get("c"); got != "5" {
		t.Errorf("long row Get(c) = %q", got)
	}
}

func TestReaderHeaderCase(t *testing.T) {
	recs := readAll(t, "Carrier_BP;Registration_Plate\nBP9;XY1234\n")
	if got := recs[0].Get("carrier_bp"); got != "BP9" {
		t.Errorf("case-insensitive header lookup failed, got %q", got)
	}
	if !recs[0].Has("registration_plate") {
		t.Error("Has(registration_plate) = false")
	}
	if recs[0].Has("unknown_column") {
		t.Error("Has(unknown_column) = true")
	}
}

func TestReaderEmptyFile(t *testing.T) {
	r := NewReader(strings.NewReader(""))
	if _, err := r.Next(); err == nil || err == io.EOF {
		t.Fatalf("want header error for empty file, got %v", err)
	}
}
