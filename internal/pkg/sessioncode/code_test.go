package sessioncode

import (
	"strings"
	"testing"
)

func TestGenerateFormat(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		parts := strings.Split(code, "-")
		if len(parts) != 2 {
			t.Fatalf("Generate() = %q, want two dash-separated groups", code)
		}
		for _, part := range parts {
			if len(part) != 6 {
				t.Errorf("group %q has length %d, want 6", part, len(part))
			}
		}
		if !Valid(code) {
			t.Errorf("Valid(%q) = false for generated code", code)
		}
	}
}

func TestGenerateUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if seen[code] {
			t.Fatalf("duplicate code generated: %q", code)
		}
		seen[code] = true
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		code string
		want bool
	}{
		{name: "well formed", code: "ABCDEF-234567", want: true},
		{name: "empty", code: "", want: false},
		{name: "missing dash", code: "ABCDEF234567", want: false},
		{name: "short group", code: "ABCDE-234567", want: false},
		{name: "long group", code: "ABCDEFG-234567", want: false},
		{name: "lowercase", code: "abcdef-234567", want: false},
		{name: "ambiguous chars excluded", code: "ABCDE0-234567", want: false},
		{name: "three groups", code: "ABCDEF-ABCDEF-ABCDEF", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.code); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
