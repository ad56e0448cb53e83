package utils

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
)

// Minimal internal validator to avoid an external dependency. Supports:
// - required
// - slugok (lowercase alphanumerics and single hyphens, no leading/trailing hyphen)
// - emailok (loose email shape)
// - nameok (letters, numbers, space, hyphen, apostrophe, 1-100 chars)
// - pwdmin (min length 8)

var (
	reSlugOK  = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	reEmailOK = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	reNameOK  = regexp.MustCompile(`^[A-Za-z0-9 \-']{1,100}$`)
)

// IsValidSlug reports whether s satisfies the campaign slug shape.
func IsValidSlug(s string) bool {
	return reSlugOK.MatchString(s)
}

// ValidateStruct inspects struct tags `validate:"..."` and returns the first error encountered.
func ValidateStruct(s interface{}) error {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return errors.New("ValidateStruct expects a struct or pointer to struct")
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" {
			continue
		}
		fv := v.Field(i)
		var sval string
		if fv.IsValid() && fv.Kind() == reflect.String {
			sval = fv.String()
		}
		for _, p := range strings.Split(tag, ",") {
			switch p = strings.TrimSpace(p); p {
			case "required":
				if sval == "" {
					return errors.New(field.Name + " is required")
				}
			case "slugok":
				if sval != "" && !reSlugOK.MatchString(sval) {
					return errors.New(field.Name + " must be a lowercase URL-safe slug")
				}
			case "emailok":
				if sval != "" && !reEmailOK.MatchString(sval) {
					return errors.New(field.Name + " must be a valid email address")
				}
			case "nameok":
				if sval != "" && !reNameOK.MatchString(sval) {
					return errors.New(field.Name + " contains invalid characters")
				}
			case "pwdmin":
				if len(sval) < 8 {
					return errors.New(field.Name + " must be at least 8 characters")
				}
			}
		}
	}
	return nil
}
