package normalize

import "testing"

func TestRUT(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		withDots  bool
		wantValue string
		wantOK    bool
	}{
		{
			name:      "valid without dots",
			input:     "12345678-5",
			wantValue: "12345678-5",
			wantOK:    true,
		},
		{
			name:      "valid with dots in input, plain output",
			input:     "12.345.678-5",
			wantValue: "12345678-5",
			wantOK:    true,
		},
		{
			name:      "valid, grouped output requested",
			input:     "12345678-5",
			withDots:  true,
			wantValue: "12.345.678-5",
			wantOK:    true,
		},
		{
			name:      "dots in and out",
			input:     "12.345.678-5",
			withDots:  true,
			wantValue: "12.345.678-5",
			wantOK:    true,
		},
		{
			name:      "K verification digit",
			input:     "20347878-K",
			wantValue: "20347878-K",
			wantOK:    true,
		},
		{
			name:      "lowercase k normalized",
			input:     "20347878-k",
			wantValue: "20347878-K",
			wantOK:    true,
		},
		{
			name:      "seven digit body",
			input:     "7775777-5",
			wantValue: "7775777-5",
			wantOK:    true,
		},
		{
			name:  "wrong verification digit",
			input: "12.345.678-0",
		},
		{
			name:  "missing hyphen",
			input: "123456789",
		},
		{
			name:  "too short",
			input: "123-6",
		},
		{
			name:  "letters in body",
			input: "12A45678-5",
		},
		{
			name:  "empty",
			input: "",
		},
		{
			name:  "misplaced dots",
			input: "1.2345.678-5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RUT(tt.input, tt.withDots)
			if ok != tt.wantOK {
				t.Fatalf("RUT(%q, %v) ok = %v, want %v", tt.input, tt.withDots, ok, tt.wantOK)
			}
			if got != tt.wantValue {
				t.Errorf("RUT(%q, %v) = %q, want %q", tt.input, tt.withDots, got, tt.wantValue)
			}
		})
	}
}

// TestRUTRoundTrip checks that a RUT formatted with dots validates back to
// the same plain form.
func TestRUTRoundTrip(t *testing.T) {
	plain, ok := RUT("12345678-5", false)
	if !ok {
		t.Fatal("expected valid RUT")
	}

	grouped, ok := RUT(plain, true)
	if !ok {
		t.Fatal("expected grouped output to be produced")
	}

	back, ok := RUT(grouped, false)
	if !ok {
		t.Fatal("expected grouped form to validate")
	}
	if back != plain {
		t.Errorf("round trip = %q, want %q", back, plain)
	}
}

func TestComputeDV(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{"12345678", "5"},
		{"20347878", "K"},
		{"7775777", "5"},
		{"11111111", "1"},
		{"76543210", "3"},
	}

	for _, tt := range tests {
		if got := ComputeDV(tt.body); got != tt.want {
			t.Errorf("ComputeDV(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
