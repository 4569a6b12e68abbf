package provider

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/slang-tools/slangref/config"
	"github.com/slang-tools/slangref/detect"
	"github.com/slang-tools/slangref/i18n"
	"github.com/slang-tools/slangref/keygen"
	"github.com/slang-tools/slangref/settings"
	"github.com/slang-tools/slangref/store"
)

// Command identifiers exposed to the client.
const (
	CommandConvert          = "slangReferences.convertToTranslation"
	CommandConvertCustomKey = "slangReferences.convertToTranslationWithCustomKey"
	CommandClearCache       = "slangReferences.clearCache"
)

// Commands lists every command the server executes.
var Commands = []string{CommandConvert, CommandConvertCustomKey, CommandClearCache}

// maxKeyActions caps the suggested-key actions offered per literal.
const maxKeyActions = 3

// accessorPrefix replaces a converted literal.
const accessorPrefix = "t."

// ---------------------------------------------------------------------------
// Host
// ---------------------------------------------------------------------------

// MessageKind is the severity of a user message.
type MessageKind int

const (
	MessageInfo MessageKind = iota
	MessageWarning
	MessageError
)

// Edit replaces bytes [Start, End) of one line.
type Edit struct {
	URI     string
	Line    int
	Start   int
	End     int
	NewText string
}

// Host is the editor side of a conversion.
type Host interface {
	// ApplyEdit applies edit and reports whether the editor accepted it.
	ApplyEdit(edit Edit) (bool, error)
	ShowMessage(kind MessageKind, message string)
	// Prompt asks for a value, offering defaultValue. validate returns an
	// error message or "". ok is false when the user cancels.
	Prompt(message, defaultValue string, validate func(string) string) (value string, ok bool, err error)
	// Confirm asks a yes/no question.
	Confirm(message, yes, no string) (bool, error)
}

// ---------------------------------------------------------------------------
// Code actions
// ---------------------------------------------------------------------------

// KeyStore persists translation entries.
type KeyStore interface {
	AddTranslation(entry store.Entry, docPath string) store.WriteResult
	SetTranslation(entry store.Entry, docPath string) store.WriteResult
	ExistingKeys(docPath string) ([]string, error)
}

// ProjectLocator finds the project configuration governing a document.
type ProjectLocator interface {
	Config(docPath string) (*config.Resolved, error)
}

// CacheClearer is a cache that must be dropped after the store changes.
type CacheClearer interface {
	ClearCache()
}

// Action is a code action offered for a literal.
type Action struct {
	Title     string
	Command   string
	Arguments []any
	Preferred bool
}

// ConversionProvider offers and performs literal-to-translation
// conversions.
type ConversionProvider struct {
	store    KeyStore
	projects ProjectLocator
	settings *settings.Holder
	caches   []CacheClearer
}

// NewConversionProvider returns a provider writing through keys. caches are
// cleared after every successful write.
func NewConversionProvider(keys KeyStore, projects ProjectLocator, s *settings.Holder, caches ...CacheClearer) *ConversionProvider {
	return &ConversionProvider{store: keys, projects: projects, settings: s, caches: caches}
}

// keyPath returns docPath relative to its project directory, so nested key
// suggestions are built from folders inside the project only.
func (p *ConversionProvider) keyPath(docPath string) string {
	cfg, err := p.projects.Config(docPath)
	if err != nil {
		return docPath
	}
	rel, err := filepath.Rel(cfg.Dir, docPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return docPath
	}
	return filepath.ToSlash(rel)
}

// CodeActions returns the conversion actions for the literal at offset in
// line, or nil when there is none or conversion is disabled.
func (p *ConversionProvider) CodeActions(docURI, docPath, line string, lineNo, offset int) []Action {
	if !p.settings.Get().ConversionEnabled {
		return nil
	}
	det, ok := detect.DetectStringLiteral(line, lineNo, offset)
	if !ok {
		return nil
	}

	existing, err := p.store.ExistingKeys(docPath)
	if err != nil {
		log.Debugf("existing keys for %s: %s", docPath, err)
	}

	var actions []Action
	seen := make(map[string]bool)
	for i, suggestion := range keygen.Suggestions(det.Value, p.keyPath(docPath)) {
		if i >= maxKeyActions {
			break
		}
		key := keygen.UniqueKey(suggestion, existing)
		if seen[key] {
			continue
		}
		seen[key] = true

		format := "Convert to translation: t.%s"
		if i == 1 && strings.Contains(suggestion, ".") {
			format = "Convert to nested translation: t.%s"
		}
		actions = append(actions, Action{
			Title:     fmt.Sprintf(i18n.T(format), key),
			Command:   CommandConvert,
			Arguments: []any{docURI, det, key, det.Value},
			Preferred: i == 0,
		})
	}

	actions = append(actions, Action{
		Title:     i18n.T("Convert to translation with custom key..."),
		Command:   CommandConvertCustomKey,
		Arguments: []any{docURI, det},
	})
	return actions
}

// ---------------------------------------------------------------------------
// Conversion
// ---------------------------------------------------------------------------

// Convert writes key=value to the store and replaces the literal with an
// accessor. It reports whether the source was rewritten. Failures are shown
// through host.
func (p *ConversionProvider) Convert(host Host, docURI, docPath string, det detect.Detection, key, value string) bool {
	r := p.store.AddTranslation(store.Entry{Key: key, Value: value}, docPath)
	return p.apply(host, docURI, det, r)
}

// ConvertWithCustomKey converts det under a user-chosen key. A non-empty
// key is used as given after validation; otherwise the user is prompted
// with the generated key as default. An existing key is overwritten only
// after the user confirms.
func (p *ConversionProvider) ConvertWithCustomKey(host Host, docURI, docPath string, det detect.Detection, key string) bool {
	if key == "" {
		var ok bool
		var err error
		key, ok, err = host.Prompt(
			i18n.T("Enter custom translation key (use dots for nested structure, e.g., \"folder.subfolder.key\")"),
			keygen.GenerateKey(det.Value, keygen.Options{}),
			validationMessage,
		)
		if err != nil {
			host.ShowMessage(MessageError, fmt.Sprintf(i18n.T("Failed to convert to translation: %v"), err))
			return false
		}
		if !ok || key == "" {
			return false
		}
	}
	if msg := validationMessage(key); msg != "" {
		host.ShowMessage(MessageError, fmt.Sprintf(i18n.T("Invalid translation key: %s"), msg))
		return false
	}

	entry := store.Entry{Key: key, Value: det.Value}
	r := p.store.AddTranslation(entry, docPath)
	if r.Success || !errors.Is(r.Err, store.ErrKeyExists) {
		return p.apply(host, docURI, det, r)
	}

	conflict := key
	var keyErr *store.KeyError
	if errors.As(r.Err, &keyErr) {
		conflict = keyErr.Key
	}
	yes, no := i18n.T("Yes"), i18n.T("No")
	overwrite, err := host.Confirm(fmt.Sprintf(i18n.T("Translation key '%s' already exists. Overwrite?"), conflict), yes, no)
	if err != nil {
		host.ShowMessage(MessageError, fmt.Sprintf(i18n.T("Failed to convert to translation: %v"), err))
		return false
	}
	if !overwrite {
		return false
	}
	return p.apply(host, docURI, det, p.store.SetTranslation(entry, docPath))
}

func validationMessage(key string) string {
	v := keygen.ValidateNestedKey(key)
	if v.Valid {
		return ""
	}
	return strings.Join(v.Errors, ", ")
}

func (p *ConversionProvider) apply(host Host, docURI string, det detect.Detection, r store.WriteResult) bool {
	if !r.Success {
		host.ShowMessage(MessageError, r.Error)
		return false
	}
	p.ClearCaches()

	applied, err := host.ApplyEdit(Edit{
		URI:     docURI,
		Line:    det.Line,
		Start:   det.Start,
		End:     det.End,
		NewText: accessorPrefix + r.KeyAdded,
	})
	switch {
	case err != nil:
		host.ShowMessage(MessageError, fmt.Sprintf(i18n.T("Failed to apply conversion: %v"), err))
		return false
	case !applied:
		host.ShowMessage(MessageError, i18n.T("Failed to update the code"))
		return false
	}

	host.ShowMessage(MessageInfo, fmt.Sprintf(i18n.T("Translation key '%s' added successfully!"), r.KeyAdded))
	return true
}

// ClearCaches drops every resolver cache.
func (p *ConversionProvider) ClearCaches() {
	for _, c := range p.caches {
		c.ClearCache()
	}
}

// IsConflict reports whether err is a key conflict from the store.
func IsConflict(err error) bool {
	return errors.Is(err, store.ErrKeyExists) || errors.Is(err, store.ErrGroupExists)
}
