package util

import "testing"

func TestParseIntDefault(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"", 8080, 8080},
		{"9090", 8080, 9090},
		{"nope", 8080, 8080},
	}
	for _, tt := range tests {
		if got := ParseIntDefault(tt.in, tt.def); got != tt.want {
			t.Fatalf("ParseIntDefault(%q, %d) = %d, want %d", tt.in, tt.def, got, tt.want)
		}
	}
}

func TestParseFloatDefault(t *testing.T) {
	tests := []struct {
		in   string
		def  float64
		want float64
	}{
		{"", 0.08, 0.08},
		{"0.15", 0.08, 0.15},
		{"junk", 0.08, 0.08},
	}
	for _, tt := range tests {
		if got := ParseFloatDefault(tt.in, tt.def); got != tt.want {
			t.Fatalf("ParseFloatDefault(%q, %v) = %v, want %v", tt.in, tt.def, got, tt.want)
		}
	}
}
