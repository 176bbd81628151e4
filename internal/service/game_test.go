package service

import (
	"strings"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generateCode() error = %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("len(%q) = %d, want 6", code, len(code))
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		seen[code] = struct{}{}
	}
	// 200 draws from a 31^6 space should essentially never collide.
	if len(seen) < 190 {
		t.Errorf("only %d distinct codes out of 200", len(seen))
	}
}

func TestCodeAlphabetExcludesAmbiguous(t *testing.T) {
	for _, r := range "0O1ILl" {
		if strings.ContainsRune(codeAlphabet, r) {
			t.Errorf("alphabet contains ambiguous character %q", r)
		}
	}
}
