package detect

import "strings"

// directivePrefixes mark lines whose literals are never user-facing.
var directivePrefixes = []string{"import ", "export ", "part ", "library ", "//"}

// FindAll returns every translatable literal in text, line by line. Line
// numbers in the results are zero-based. Directive and comment lines are
// skipped.
func FindAll(text string) []Detection {
	var out []Detection
	for lineNo, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if isDirective(line) {
			continue
		}
		for _, span := range literalSpans(line) {
			if d, ok := buildDetection(line, lineNo, span[0], span[1]); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

func isDirective(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, p := range directivePrefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// literalSpans returns the [start, end) spans of complete quoted literals.
// A backslash escapes the following byte inside a literal. An unterminated
// quote is skipped and scanning resumes after it.
func literalSpans(line string) [][2]int {
	var spans [][2]int
	for i := 0; i < len(line); i++ {
		q := line[i]
		if !isQuote(q) {
			continue
		}
		j := i + 1
		for j < len(line) && line[j] != q {
			if line[j] == '\\' {
				j++
			}
			j++
		}
		if j >= len(line) {
			continue
		}
		spans = append(spans, [2]int{i, j + 1})
		i = j
	}
	return spans
}
