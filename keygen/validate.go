package keygen

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxKeyLength       = 50
	maxNestedKeyLength = 100
)

var identifierRe = regexp.MustCompile(`(?i)^[a-z_]\w*$`)

var reservedWords = map[string]bool{
	"class":    true,
	"if":       true,
	"else":     true,
	"for":      true,
	"while":    true,
	"return":   true,
	"function": true,
	"var":      true,
	"let":      true,
	"const":    true,
}

// Validation is the outcome of checking a key. Errors is empty exactly when
// Valid is true.
type Validation struct {
	Valid  bool
	Errors []string
}

func newValidation(errs []string) Validation {
	return Validation{Valid: len(errs) == 0, Errors: errs}
}

// ValidateKey checks a flat key.
func ValidateKey(key string) Validation {
	return newValidation(keyErrors(key))
}

func keyErrors(key string) []string {
	var errs []string
	if key == "" {
		errs = append(errs, "Key cannot be empty")
	}
	if !identifierRe.MatchString(key) {
		errs = append(errs, "Key must be a valid identifier (letters, numbers, underscore, starting with letter or underscore)")
	}
	if len(key) > maxKeyLength {
		errs = append(errs, fmt.Sprintf("Key should be shorter than %d characters", maxKeyLength))
	}
	if reservedWords[strings.ToLower(key)] {
		errs = append(errs, "Key cannot be a reserved word")
	}
	return errs
}

// ValidateNestedKey checks a dotted key segment by segment.
func ValidateNestedKey(key string) Validation {
	if key == "" {
		return newValidation([]string{"Key cannot be empty"})
	}
	if len(ParseNestedKey(key)) == 0 {
		return newValidation([]string{"Key must contain at least one valid segment"})
	}

	var errs []string
	for _, seg := range strings.Split(key, ".") {
		if segErrs := keyErrors(seg); len(segErrs) > 0 {
			errs = append(errs, fmt.Sprintf("Invalid segment %q: %s", seg, strings.Join(segErrs, ", ")))
		}
	}
	if len(key) > maxNestedKeyLength {
		errs = append(errs, fmt.Sprintf("Nested key should be shorter than %d characters", maxNestedKeyLength))
	}
	return newValidation(errs)
}
