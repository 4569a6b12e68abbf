// Package detect finds translation-relevant spans in single lines of Dart
// source: quoted string literals that should be externalized, and accessor
// expressions (t.key) that read a translation.
//
// Detection is lexical. It never parses the language grammar, so it works on
// partially typed or broken code at the cost of occasional false positives,
// which the translatability filter is there to absorb.
package detect

import (
	"regexp"
	"strings"
)

// Context describes where a literal sits syntactically.
type Context string

const (
	ContextBare                Context = "bare"
	ContextCallArgument        Context = "call-argument"
	ContextConstructorArgument Context = "constructor-argument"
	ContextAssignment          Context = "assignment"
)

// Detection is a string literal found under the cursor.
//
// Start and End are byte offsets into the line, End exclusive, and span the
// literal including both quote characters.
type Detection struct {
	Value      string  `json:"value"`
	Line       int     `json:"line"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Context    Context `json:"context"`
	Callee     string  `json:"callee,omitempty"`
	ParamIndex int     `json:"paramIndex,omitempty"`
	InCall     bool    `json:"inCall"`
}

const quoteChars = "\"'`"

// probeRadius is how far around the cursor the fallback looks for a quote.
const probeRadius = 10

var quoteTokenRe = regexp.MustCompile("[\"'`][^\"'`]*[\"'`]")

func isQuote(c byte) bool {
	return strings.IndexByte(quoteChars, c) >= 0
}

// DetectStringLiteral returns the translatable literal containing offset in
// line. lineNo is recorded in the result unchanged.
func DetectStringLiteral(line string, lineNo, offset int) (Detection, bool) {
	if offset < 0 || offset > len(line) {
		return Detection{}, false
	}

	if start, end, ok := primarySpan(line, offset); ok {
		if d, ok := buildDetection(line, lineNo, start, end); ok {
			return d, true
		}
	}

	if offset < len(line) && isQuote(line[offset]) {
		if start, end, ok := quotedSpanAt(line, offset); ok {
			if d, ok := buildDetection(line, lineNo, start, end); ok {
				return d, true
			}
		}
	}

	for delta := -probeRadius; delta <= probeRadius; delta++ {
		probe := offset + delta
		if probe < 0 {
			probe = 0
		}
		if probe >= len(line) || !isQuote(line[probe]) {
			continue
		}
		start, end, ok := quotedSpanAt(line, probe)
		if !ok || offset < start || offset > end {
			continue
		}
		if d, ok := buildDetection(line, lineNo, start, end); ok {
			return d, true
		}
	}
	return Detection{}, false
}

// primarySpan returns the first quote-delimited token whose span contains
// offset, end inclusive. A token closed by an escaped quote is not a literal.
func primarySpan(line string, offset int) (int, int, bool) {
	for _, m := range quoteTokenRe.FindAllStringIndex(line, -1) {
		if escaped(line, m[1]-1) {
			continue
		}
		if m[0] <= offset && offset <= m[1] {
			return m[0], m[1], true
		}
	}
	return 0, 0, false
}

// quotedSpanAt finds the literal bounded by the quote at pos, or the literal
// surrounding pos when it is not on a quote. On a quote, an earlier
// unescaped quote of the same kind makes pos the closing quote; otherwise pos
// opens the literal.
func quotedSpanAt(line string, pos int) (int, int, bool) {
	if pos < 0 || pos >= len(line) {
		return 0, 0, false
	}
	c := line[pos]
	if isQuote(c) {
		for i := pos - 1; i >= 0; i-- {
			if line[i] == c && !escaped(line, i) {
				return i, pos + 1, true
			}
		}
		if end := closingQuote(line, pos+1, c); end >= 0 {
			return pos, end + 1, true
		}
		return 0, 0, false
	}

	open := -1
	for i := pos - 1; i >= 0; i-- {
		if isQuote(line[i]) {
			open = i
			break
		}
	}
	if open < 0 {
		return 0, 0, false
	}
	if end := closingQuote(line, pos, line[open]); end >= 0 {
		return open, end + 1, true
	}
	return 0, 0, false
}

func closingQuote(line string, from int, q byte) int {
	for i := from; i < len(line); i++ {
		if line[i] == q && !escaped(line, i) {
			return i
		}
	}
	return -1
}

func escaped(s string, i int) bool {
	return i > 0 && s[i-1] == '\\'
}

func buildDetection(line string, lineNo, start, end int) (Detection, bool) {
	raw := line[start:end]
	if !isStringLiteral(raw) {
		return Detection{}, false
	}
	value := raw[1 : len(raw)-1]
	if !ShouldTranslate(value) {
		return Detection{}, false
	}
	info := Classify(line, start, end)
	return Detection{
		Value:      value,
		Line:       lineNo,
		Start:      start,
		End:        end,
		Context:    info.Context,
		Callee:     info.Callee,
		ParamIndex: info.ParamIndex,
		InCall:     info.InCall,
	}, true
}

func isStringLiteral(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return false
	}
	return isQuote(s[0]) && s[0] == s[len(s)-1]
}
