package phone

import "testing"

func TestNormalizeE164(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		region string
		want   string
	}{
		{"us national format", "(650) 253-0000", "US", "+16502530000"},
		{"empty region defaults to US", "650-253-0000", "", "+16502530000"},
		{"already international", "+31 6 12345678", "US", "+31612345678"},
		{"garbage is returned trimmed", "  call me  ", "US", "call me"},
		{"blank", "   ", "US", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeE164(tt.input, tt.region); got != tt.want {
				t.Fatalf("NormalizeE164(%q, %q) = %q, want %q", tt.input, tt.region, got, tt.want)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("(650) 253-0000", "US") {
		t.Fatal("expected valid US number")
	}
	if IsValid("12", "US") {
		t.Fatal("expected short number to be invalid")
	}
}
