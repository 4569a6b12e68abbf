// Package provider implements the editor features on top of the detection,
// resolution and store packages: hover text for translation accessors and
// code actions that move string literals into the translation store.
//
// Providers never talk to the editor directly. Hovers are returned as
// values; conversions go through a Host.
package provider

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/slang-tools/slangref/config"
	"github.com/slang-tools/slangref/detect"
	"github.com/slang-tools/slangref/i18n"
	"github.com/slang-tools/slangref/langmeta"
	"github.com/slang-tools/slangref/settings"
)

var log = commonlog.GetLogger("slangref.provider")

// NameResolver resolves a bare accessor name for a document.
type NameResolver interface {
	Resolve(name, docPath string) (string, bool)
}

// TranslationSource resolves accessors through project configuration.
type TranslationSource interface {
	ResolveAccessor(acc detect.Accessor, docPath string) (string, bool)
	Config(docPath string) (*config.Resolved, error)
}

// Hover is the resolved text for an accessor.
type Hover struct {
	Accessor detect.Accessor
	Value    string
	Markdown string
}

// HoverProvider resolves accessors under the cursor.
type HoverProvider struct {
	comments NameResolver
	source   TranslationSource
	settings *settings.Holder
}

// NewHoverProvider returns a hover provider that tries comments first and
// source second.
func NewHoverProvider(comments NameResolver, source TranslationSource, s *settings.Holder) *HoverProvider {
	return &HoverProvider{comments: comments, source: source, settings: s}
}

// Hover returns the translation behind the accessor at offset in line.
// docText is the whole document.
func (p *HoverProvider) Hover(docPath, docText, line string, lineNo, offset int) (Hover, bool) {
	acc, ok := detect.DetectAccessor(line, lineNo, offset, docText)
	if !ok {
		return Hover{}, false
	}

	value, ok := p.comments.Resolve(acc.Name, docPath)
	if !ok {
		value, ok = p.source.ResolveAccessor(acc, docPath)
	}
	if !ok {
		log.Debugf("no translation for %s.%s in %s", acc.Namespace, acc.Path, docPath)
		return Hover{}, false
	}

	var md strings.Builder
	md.WriteString("```text\n")
	md.WriteString(value)
	md.WriteString("\n```")

	if p.settings.Get().ShowDetailedInfo {
		fmt.Fprintf(&md, "\n\n**%s:** `%s`", i18n.T("Variable"), acc.Name)
		fmt.Fprintf(&md, "\n\n**%s:** %s", i18n.T("Type"), i18n.T("Slang Translation"))
		if name := p.localeName(docPath); name != "" {
			fmt.Fprintf(&md, "\n\n**%s:** %s", i18n.T("Locale"), name)
		}
	}

	return Hover{Accessor: acc, Value: value, Markdown: md.String()}, true
}

// localeName renders the base locale for docPath in the UI language, e.g.
// "English (en)".
func (p *HoverProvider) localeName(docPath string) string {
	cfg, err := p.source.Config(docPath)
	if err != nil {
		return ""
	}
	return langmeta.DisplayName(cfg.BaseLocale, i18n.Language())
}
