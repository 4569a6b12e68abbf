package detect

import (
	"regexp"
	"unicode/utf8"
)

// skipPatterns match literal contents that are data rather than prose.
var skipPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+$`),                             // integers
	regexp.MustCompile(`(?i)^[a-f0-9]+$`),                   // hex strings
	regexp.MustCompile(`(?i)^(true|false|null)$`),           // literals
	regexp.MustCompile(`(?i)^(get|post|put|delete|patch)$`), // HTTP verbs
	regexp.MustCompile(`^\w+://`),                           // URLs
	regexp.MustCompile(`^/[^/\s]*`),                         // paths
	regexp.MustCompile(`^\$\{`),                             // interpolation
	regexp.MustCompile(`(?i)^#[0-9a-f]{3,6}$`),              // colors
	regexp.MustCompile(`^[+-]?(?:\d+(?:\.\d+)?|\.\d+)$`),    // numbers
	regexp.MustCompile(`^\w+\.\w+`),                         // file names, dotted identifiers
}

// ShouldTranslate reports whether a literal's content looks like user-facing
// text.
func ShouldTranslate(value string) bool {
	if utf8.RuneCountInString(value) < 2 {
		return false
	}
	for _, re := range skipPatterns {
		if re.MatchString(value) {
			return false
		}
	}
	return true
}
