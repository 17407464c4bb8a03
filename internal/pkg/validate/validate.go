package validate

import (
	"strings"
	"unicode/utf8"
)

const MaxCategoryLen = 64

func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Category trims a skill category and reports whether it is usable as a declaration.
func Category(raw string) (string, bool) {
	value := strings.TrimSpace(raw)
	if value == "" || utf8.RuneCountInString(value) > MaxCategoryLen {
		return "", false
	}
	return value, true
}
