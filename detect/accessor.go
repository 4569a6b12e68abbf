package detect

import (
	"regexp"
	"strings"
)

// Accessor is a translation read such as t.greeting or t.auth.login.title.
type Accessor struct {
	// Namespace is the identifier accepted as the translations object.
	Namespace string
	// Name is the segment under the cursor.
	Name string
	// Path joins the segments from after Namespace up to and including Name.
	Path string
	Line int
	// Start and End span the expression from Namespace through Name.
	Start int
	End   int
}

var chainRe = regexp.MustCompile(`\w+(?:\.\w+)+`)

// namespaceAllowList holds identifiers that always count as a translations
// object, compared lowercased.
var namespaceAllowList = map[string]bool{
	"t":            true,
	"translations": true,
	"tr":           true,
	"i18n":         true,
}

// declarationPatterns recognise a local declaration binding NAME to the
// generated Translations type. %s is replaced by the quoted identifier.
var declarationPatterns = []string{
	`(?i)\b%s\s*=\s*Translations\.of`,
	`(?i)\bTranslations\s+%s\b`,
	`(?i)\bfinal\s+%s\s*=\s*Translations`,
	`(?i)\bvar\s+%s\s*=\s*Translations`,
}

// DetectAccessor finds the accessor expression under offset in line. docText
// is the whole document, searched for declarations of non-standard
// translations variables.
func DetectAccessor(line string, lineNo, offset int, docText string) (Accessor, bool) {
	for _, m := range chainRe.FindAllStringIndex(line, -1) {
		if offset < m[0] || offset > m[1] {
			continue
		}
		segments := strings.Split(line[m[0]:m[1]], ".")
		cursor, segEnd := segmentAt(segments, m[0], offset)
		nsStart := m[0]
		for ns := 0; ns < cursor; ns++ {
			if !IsTranslationsVariable(segments[ns], docText) {
				nsStart += len(segments[ns]) + 1
				continue
			}
			return Accessor{
				Namespace: segments[ns],
				Name:      segments[cursor],
				Path:      strings.Join(segments[ns+1:cursor+1], "."),
				Line:      lineNo,
				Start:     nsStart,
				End:       segEnd,
			}, true
		}
	}
	return Accessor{}, false
}

// segmentAt returns the index of the segment containing offset and the byte
// offset where that segment ends. A cursor on the first segment or on a dot
// resolves to the following segment.
func segmentAt(segments []string, base, offset int) (int, int) {
	pos := base
	for i, seg := range segments {
		end := pos + len(seg)
		if offset <= end && i > 0 {
			return i, end
		}
		pos = end + 1
	}
	return len(segments) - 1, pos - 1
}

// IsTranslationsVariable reports whether name refers to the translations
// object: either a conventional name or one declared from Translations in
// docText.
func IsTranslationsVariable(name, docText string) bool {
	if namespaceAllowList[strings.ToLower(name)] {
		return true
	}
	quoted := regexp.QuoteMeta(name)
	for _, p := range declarationPatterns {
		re, err := regexp.Compile(strings.ReplaceAll(p, "%s", quoted))
		if err != nil {
			continue
		}
		if re.MatchString(docText) {
			return true
		}
	}
	return false
}
