package service

import (
	"strings"
	"testing"
)

func TestNewIssuanceCodeFormat(t *testing.T) {
	code := newIssuanceCode()
	if !strings.HasPrefix(code, "CP_") {
		t.Errorf("Expected CP_ prefix, got %q", code)
	}
	if len(code) != 11 {
		t.Errorf("Expected 11 characters, got %d (%q)", len(code), code)
	}
	if code != strings.ToUpper(code) {
		t.Errorf("Expected uppercase code, got %q", code)
	}
}

func TestNewIssuanceCodeUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := newIssuanceCode()
		if seen[code] {
			t.Fatalf("Duplicate issuance code generated: %q", code)
		}
		seen[code] = true
	}
}
