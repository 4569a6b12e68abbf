package detect

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// ContextInfo is the syntactic classification of a literal span.
type ContextInfo struct {
	Context    Context
	Callee     string
	ParamIndex int
	InCall     bool
}

var (
	callRe       = regexp.MustCompile(`(\w+)\s*\(`)
	assignmentRe = regexp.MustCompile(`(\w+)\s*[:=]\s*`)
)

// Classify decides whether the literal spanning [start, end) in line is an
// argument of a call or constructor, the right side of an assignment, or
// bare. The first enclosing call on the line wins; capitalized callees are
// constructors.
func Classify(line string, start, end int) ContextInfo {
	for _, m := range callRe.FindAllStringSubmatchIndex(line, -1) {
		open := m[1] - 1
		closing := FindMatchingParen(line, open)
		if closing == -1 || start <= open || end > closing {
			continue
		}
		name := line[m[2]:m[3]]
		ctx := ContextCallArgument
		if r, _ := utf8.DecodeRuneInString(name); unicode.IsUpper(r) {
			ctx = ContextConstructorArgument
		}
		return ContextInfo{
			Context:    ctx,
			Callee:     name,
			ParamIndex: ParameterIndex(line, open, start),
			InCall:     true,
		}
	}

	for _, m := range assignmentRe.FindAllStringIndex(line, -1) {
		if start >= m[1] {
			return ContextInfo{Context: ContextAssignment}
		}
	}
	return ContextInfo{Context: ContextBare}
}

// FindMatchingParen returns the index of the parenthesis closing the one at
// open, or -1. Parentheses inside quoted strings are ignored. A position that
// is not itself '(' is accepted; counting starts at the first '(' found.
func FindMatchingParen(text string, open int) int {
	if open < 0 || open >= len(text) {
		return -1
	}
	depth := 0
	var quote byte
	for i := open; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == quote && !escaped(text, i) {
				quote = 0
			}
			continue
		}
		switch {
		case isQuote(c):
			quote = c
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// ParameterIndex counts the top-level commas between the opening
// parenthesis at open and pos, giving the zero-based argument position.
func ParameterIndex(text string, open, pos int) int {
	if pos > len(text) {
		pos = len(text)
	}
	index, depth := 0, 0
	var quote byte
	for i := open + 1; i < pos; i++ {
		c := text[i]
		if quote != 0 {
			if c == quote && !escaped(text, i) {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				index++
			}
		}
	}
	return index
}
