// Package langmeta describes slang locales for display: native names,
// localized names and emoji flags, used by hovers and the CLI.
package langmeta

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Meta describes language display metadata.
type Meta struct {
	// Name is the language's own name for itself, e.g. "Deutsch".
	Name string
	// Flag is the emoji flag of an explicit region, or "".
	Flag string
}

// Canonicalize normalizes a locale as it appears in slang file names
// (pt_br, PT-br) to BCP 47 casing (pt-BR).
func Canonicalize(loc string) string {
	normalized := strings.ReplaceAll(strings.TrimSpace(loc), "_", "-")
	if normalized == "" {
		return ""
	}
	parts := strings.Split(normalized, "-")
	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		switch len(parts[i]) {
		case 2:
			parts[i] = strings.ToUpper(parts[i])
		case 4:
			parts[i] = strings.ToUpper(parts[i][:1]) + strings.ToLower(parts[i][1:])
		}
	}
	return strings.Join(parts, "-")
}

// Resolve returns best-effort metadata for loc. Unknown locales keep their
// code as name and get no flag.
func Resolve(loc string) Meta {
	tag, err := language.Parse(Canonicalize(loc))
	if err != nil {
		return Meta{Name: loc}
	}
	name := display.Self.Name(tag)
	if name == "" {
		name = loc
	}
	return Meta{Name: name, Flag: flagOf(tag)}
}

func flagOf(tag language.Tag) string {
	region, conf := tag.Region()
	if conf != language.Exact {
		return ""
	}
	return FlagFromRegion(region.String())
}

// FlagFromRegion returns the flag emoji for a two-letter region code.
func FlagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToUpper(region) {
		if r < 'A' || r > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + r - 'A')
	}
	return b.String()
}

// DisplayName renders loc in the language uiLang, e.g. "English (en)" or
// "Englisch (en)". An unparsable loc is returned unchanged.
func DisplayName(loc, uiLang string) string {
	tag, err := language.Parse(Canonicalize(loc))
	if err != nil {
		return loc
	}
	namer := display.Tags(language.Make(uiLang))
	if namer == nil {
		namer = display.English.Tags()
	}
	name := namer.Name(tag)
	if name == "" {
		return loc
	}
	return fmt.Sprintf("%s (%s)", name, loc)
}
