// Package keygen turns free text into translation keys: readable,
// identifier-safe, length-bounded and unique within an existing key set.
package keygen

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CaseStyle selects how words are joined into a key.
type CaseStyle string

const (
	CamelCase  CaseStyle = "camelCase"
	SnakeCase  CaseStyle = "snake_case"
	KebabCase  CaseStyle = "kebab-case"
	PascalCase CaseStyle = "PascalCase"
)

// DefaultMaxLength bounds generated keys when Options.MaxLength is zero.
const DefaultMaxLength = 20

// FallbackKey is returned when nothing usable survives normalization.
const FallbackKey = "translationKey"

// Options control key generation. The zero value selects the defaults:
// 20 characters, camelCase, special characters removed, digits kept.
type Options struct {
	// MaxLength caps the normalized text before casing. Zero means
	// DefaultMaxLength; a negative value disables truncation.
	MaxLength int
	Prefix    string
	Suffix    string
	CaseStyle CaseStyle
	// KeepSpecialChars skips separator replacement and punctuation removal.
	KeepSpecialChars bool
	// DisallowNumbers strips digits from the text.
	DisallowNumbers bool
}

func (o Options) withDefaults() Options {
	if o.MaxLength == 0 {
		o.MaxLength = DefaultMaxLength
	}
	if o.CaseStyle == "" {
		o.CaseStyle = CamelCase
	}
	return o
}

var (
	separatorRe   = regexp.MustCompile(`[-_./\\]`)
	punctuationRe = regexp.MustCompile(`[^\w\s]`)
	digitRe       = regexp.MustCompile(`\d`)
	spaceRe       = regexp.MustCompile(`\s+`)
	nonIdentRe    = regexp.MustCompile(`\W`)
)

// GenerateKey derives a key from text: normalize, truncate at a word
// boundary, apply the case style, add prefix and suffix, then sanitize into
// an identifier.
func GenerateKey(text string, opts Options) string {
	opts = opts.withDefaults()

	s := normalize(text, opts)
	s = truncate(s, opts.MaxLength)
	key := applyCase(s, opts.CaseStyle)

	if opts.Prefix != "" {
		key = opts.Prefix + capitalizeFirst(key)
	}
	if opts.Suffix != "" {
		key += capitalizeFirst(opts.Suffix)
	}
	return sanitize(key)
}

func normalize(text string, opts Options) string {
	s := foldAccents(text)
	if !opts.KeepSpecialChars {
		s = separatorRe.ReplaceAllString(s, " ")
		s = punctuationRe.ReplaceAllString(s, "")
	}
	if opts.DisallowNumbers {
		s = digitRe.ReplaceAllString(s, "")
	}
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// foldAccents maps accented Latin letters to their base letter so that
// "Café" keeps its e instead of losing the letter entirely.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// truncate keeps whole leading words while they fit in max bytes. When even
// the first word is too long the text is cut hard.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	result := ""
	for _, word := range strings.Split(s, " ") {
		candidate := word
		if result != "" {
			candidate = result + " " + word
		}
		if len(candidate) > max {
			break
		}
		result = candidate
	}
	if result == "" {
		return s[:max]
	}
	return result
}

func applyCase(s string, style CaseStyle) string {
	words := strings.Fields(s)
	switch style {
	case CamelCase:
		for i, w := range words {
			if i == 0 {
				words[i] = strings.ToLower(w)
			} else {
				words[i] = capitalizeFirst(strings.ToLower(w))
			}
		}
		return strings.Join(words, "")
	case PascalCase:
		for i, w := range words {
			words[i] = capitalizeFirst(strings.ToLower(w))
		}
		return strings.Join(words, "")
	case SnakeCase:
		return strings.ToLower(strings.Join(words, "_"))
	case KebabCase:
		return strings.ToLower(strings.Join(words, "-"))
	}
	return strings.Join(words, "")
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func sanitize(key string) string {
	if key != "" && key[0] >= '0' && key[0] <= '9' {
		key = "_" + key
	}
	key = nonIdentRe.ReplaceAllString(key, "_")
	if key == "" {
		return FallbackKey
	}
	return key
}

// ---------------------------------------------------------------------------
// Suggestions
// ---------------------------------------------------------------------------

// skipSegments are structural folder names that say nothing about a feature.
var skipSegments = map[string]bool{
	"lib":          true,
	"src":          true,
	"app":          true,
	"main":         true,
	"dart":         true,
	"flutter":      true,
	"packages":     true,
	"node_modules": true,
}

const (
	maxPathSegments  = 3
	segmentMaxLength = 12
	shortMaxLength   = 15
)

// Suggestions returns ranked, de-duplicated key candidates for text: the
// default key, a nested key derived from filePath when one is given, and a
// short key.
func Suggestions(text, filePath string) []string {
	candidates := []string{GenerateKey(text, Options{})}
	if filePath != "" {
		candidates = append(candidates, NestedKey(text, filePath))
	}
	candidates = append(candidates, GenerateKey(text, Options{MaxLength: shortMaxLength}))

	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// NestedKey prefixes a short key for text with up to three meaningful
// directory names from filePath, e.g. features/auth/login_page.dart gives
// "features.auth.<key>".
func NestedKey(text, filePath string) string {
	segments := pathSegments(filePath)
	if len(segments) == 0 {
		return GenerateKey(text, Options{})
	}
	return strings.Join(append(segments, GenerateKey(text, Options{MaxLength: shortMaxLength})), ".")
}

func pathSegments(filePath string) []string {
	parts := strings.Split(strings.ReplaceAll(filePath, "\\", "/"), "/")
	var segments []string
	for i := len(parts) - 1; i >= 0 && len(segments) < maxPathSegments; i-- {
		part := parts[i]
		if part == "" || strings.Contains(part, ".") || skipSegments[strings.ToLower(part)] {
			continue
		}
		key := GenerateKey(part, Options{MaxLength: segmentMaxLength})
		if key == FallbackKey {
			continue
		}
		segments = append([]string{key}, segments...)
	}
	return segments
}

// UniqueKey returns base when it is not in existing, otherwise the first of
// base1, base2, ... that is free.
func UniqueKey(base string, existing []string) string {
	taken := make(map[string]bool, len(existing))
	for _, k := range existing {
		taken[k] = true
	}
	if !taken[base] {
		return base
	}
	for n := 1; ; n++ {
		candidate := base + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// HasConflict reports whether key is already present in existing.
func HasConflict(key string, existing []string) bool {
	for _, k := range existing {
		if k == key {
			return true
		}
	}
	return false
}

// ParseNestedKey splits a dotted key into its non-empty segments.
func ParseNestedKey(key string) []string {
	var out []string
	for _, seg := range strings.Split(key, ".") {
		if strings.TrimSpace(seg) != "" {
			out = append(out, seg)
		}
	}
	return out
}
