package shared

import (
	"strconv"
	"strings"
)

// OptionalString returns nil for blank input so the backend receives null.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// OptionalInt parses an id or count; blank or malformed input becomes nil.
func OptionalInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// OptionalFloat parses a decimal accepting both "1.5" and "1,5".
func OptionalFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// IsNumber reports whether s parses with OptionalFloat or is blank.
func IsNumber(s string) bool {
	return strings.TrimSpace(s) == "" || OptionalFloat(s) != nil
}

// FormatFloat renders a stored value back into a form input.
func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// FormatInt renders an optional id back into a form input.
func FormatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

// DerefString returns "" for nil.
func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
