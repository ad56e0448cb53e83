package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var reKenyanMobile = regexp.MustCompile(`^2547\d{8}$`)

// NormalizeKenyanPhone normalizes an M-Pesa subscriber number to the 2547XXXXXXXX form the
// Daraja API expects. Accepted inputs: 07XXXXXXXX, 7XXXXXXXX, +2547XXXXXXXX, 2547XXXXXXXX,
// with spaces and dashes tolerated. Anything else is rejected.
func NormalizeKenyanPhone(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.TrimPrefix(s, "+")

	switch {
	case strings.HasPrefix(s, "0"):
		s = "254" + s[1:]
	case strings.HasPrefix(s, "7"):
		s = "254" + s
	}

	if !reKenyanMobile.MatchString(s) {
		return "", fmt.Errorf("invalid M-Pesa phone number %q", raw)
	}
	return s, nil
}
