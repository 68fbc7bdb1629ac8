package normalize

import (
	"testing"
	"time"
)

func TestDate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string // YYYY-MM-DD, empty means not ok
		wantOK bool
	}{
		{
			name:   "day first with dashes",
			input:  "24-06-2025",
			want:   "2025-06-24",
			wantOK: true,
		},
		{
			name:   "day first with slashes",
			input:  "24/06/2025",
			want:   "2025-06-24",
			wantOK: true,
		},
		{
			name:   "year first",
			input:  "2025-06-24",
			want:   "2025-06-24",
			wantOK: true,
		},
		{
			name:   "time suffix discarded",
			input:  "24-06-2025, 09:21",
			want:   "2025-06-24",
			wantOK: true,
		},
		{
			name:   "unpadded day and month",
			input:  "1/6/2025",
			want:   "2025-06-01",
			wantOK: true,
		},
		{
			name:  "invalid month",
			input: "31-13-2025",
		},
		{
			name:  "invalid day",
			input: "32-01-2025",
		},
		{
			name:  "empty",
			input: "",
		},
		{
			name:  "no separators",
			input: "20250624",
		},
		{
			name:  "garbage",
			input: "not a date",
		},
		{
			name:  "two segments",
			input: "06-2025",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Date(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Date(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !tt.wantOK {
				return
			}
			if got.Format(time.DateOnly) != tt.want {
				t.Errorf("Date(%q) = %s, want %s", tt.input, got.Format(time.DateOnly), tt.want)
			}
		})
	}
}

func TestSpaces(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  hello   world  ", "hello world"},
		{"one\ttwo\nthree", "one two three"},
		{"already clean", "already clean"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := Spaces(tt.input); got != tt.want {
			t.Errorf("Spaces(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBoolCoercion(t *testing.T) {
	if !Bool("true") || !Bool(" TRUE ") || !Bool("True") {
		t.Error("expected literal true variants to coerce to true")
	}
	if Bool("yes") || Bool("1") || Bool("") || Bool("false") {
		t.Error("expected non-literal values to coerce to false")
	}

	if !ApprovedStatus("Aprobada") || !ApprovedStatus("  aprobada ") {
		t.Error("expected approval token to coerce to true")
	}
	if ApprovedStatus("Rechazada") || ApprovedStatus("No Aplica") || ApprovedStatus("") {
		t.Error("expected non-approval tokens to coerce to false")
	}
}
