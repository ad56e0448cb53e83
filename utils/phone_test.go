package utils

import "testing"

func TestNormalizeKenyanPhone(t *testing.T) {
	valid := map[string]string{
		"0712345678":      "254712345678",
		"712345678":       "254712345678",
		"+254712345678":   "254712345678",
		"254712345678":    "254712345678",
		"0712 345 678":    "254712345678",
		"07-12-34-56-78":  "254712345678",
		" +254 712345678": "254712345678",
	}
	for in, want := range valid {
		got, err := NormalizeKenyanPhone(in)
		if err != nil {
			t.Fatalf("NormalizeKenyanPhone(%q) unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeKenyanPhone(%q) = %q, want %q", in, got, want)
		}
	}

	invalid := []string{
		"",
		"12345",
		"0812345678",     // not a 7xx mobile
		"25471234567",    // too short
		"2547123456789",  // too long
		"07123456xx",     // non-digits
		"+14155550100",   // not Kenyan
		"254 0712345678", // double prefix
	}
	for _, in := range invalid {
		if _, err := NormalizeKenyanPhone(in); err == nil {
			t.Fatalf("NormalizeKenyanPhone(%q) expected error", in)
		}
	}
}
