package utils

import (
	"strings"
	"testing"
)

func TestGenerateReference(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		ref := GenerateReference("CMF")
		if !strings.HasPrefix(ref, "CMF-") {
			t.Fatalf("reference %q missing prefix", ref)
		}
		if seen[ref] {
			t.Fatalf("duplicate reference %q", ref)
		}
		seen[ref] = true
	}
}
