package utils

import "testing"

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"aapl", "AAPL"},
		{"  tsla ", "TSLA"},
		{"Brk.b", "BRK.B"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeSymbol(tt.in); got != tt.want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidSymbol(t *testing.T) {
	valid := []string{"A", "AAPL", "GOOGL", "BRK.B", "RDS-A"}
	for _, s := range valid {
		if !ValidSymbol(s) {
			t.Errorf("ValidSymbol(%q) = false, want true", s)
		}
	}

	invalid := []string{"", "aapl", "TOOLONGG", "AAPL.", "123", "AA PL", "$AAPL"}
	for _, s := range invalid {
		if ValidSymbol(s) {
			t.Errorf("ValidSymbol(%q) = true, want false", s)
		}
	}
}
