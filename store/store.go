// Package store adds new translation keys to a project's base-locale
// translation source.
//
// The target file is the one slang.yaml points to from the document being
// edited. JSON sources take nested dotted keys; YAML sources take them too;
// ARB sources are flat. A missing file is created. Existing keys are never
// silently replaced: adding one that exists is a conflict unless the caller
// asks for an overwrite.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/slang-tools/slangref/arbfile"
	"github.com/slang-tools/slangref/jsontree"
	"github.com/slang-tools/slangref/resolve"
	"github.com/slang-tools/slangref/workspace"
	"github.com/slang-tools/slangref/yamlfile"
)

var log = commonlog.GetLogger("slangref.store")

var (
	// ErrKeyExists is returned when the key is already present.
	ErrKeyExists = errors.New("translation key already exists")
	// ErrGroupExists is returned when the key names an existing group of
	// nested keys.
	ErrGroupExists = errors.New("translation key names an existing group")
	// ErrUnsupportedStore is returned when the store format cannot hold the
	// key.
	ErrUnsupportedStore = errors.New("translation store cannot hold this key")
)

// Entry is a key and its base-locale text.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// WriteResult reports the outcome of one write.
type WriteResult struct {
	Success  bool   `json:"success"`
	FilePath string `json:"filePath,omitempty"`
	Error    string `json:"error,omitempty"`
	KeyAdded string `json:"keyAdded,omitempty"`
	// Err is the underlying error, for errors.Is checks.
	Err error `json:"-"`
}

// Locator finds the translation source for a document.
type Locator interface {
	TranslationFile(docPath string) (string, error)
}

// Writer writes entries into translation sources.
type Writer struct {
	files   workspace.WritableFiles
	locator Locator
}

// NewWriter returns a writer using files for I/O and locator to pick the
// target file.
func NewWriter(files workspace.WritableFiles, locator Locator) *Writer {
	return &Writer{files: files, locator: locator}
}

// AddTranslation adds a new key. An existing key is a conflict.
func (w *Writer) AddTranslation(entry Entry, docPath string) WriteResult {
	return w.write([]Entry{entry}, docPath, false)[0]
}

// SetTranslation adds a key or replaces the value of an existing one.
func (w *Writer) SetTranslation(entry Entry, docPath string) WriteResult {
	return w.write([]Entry{entry}, docPath, true)[0]
}

// AddTranslations adds entries in order and stops at the first failure.
// The returned slice holds one result per attempted entry. Entries written
// before a failure stay written.
func (w *Writer) AddTranslations(entries []Entry, docPath string) []WriteResult {
	var results []WriteResult
	for _, e := range entries {
		r := w.AddTranslation(e, docPath)
		results = append(results, r)
		if !r.Success {
			break
		}
	}
	return results
}

// ExistingKeys returns the flattened keys of the translation source for
// docPath. A missing source has no keys.
func (w *Writer) ExistingKeys(docPath string) ([]string, error) {
	path, err := w.locator.TranslationFile(docPath)
	if err != nil {
		return nil, err
	}
	doc, err := w.load(path)
	if err != nil {
		return nil, err
	}
	return doc.Keys(), nil
}

func (w *Writer) write(entries []Entry, docPath string, overwrite bool) []WriteResult {
	fail := func(path string, err error) []WriteResult {
		return []WriteResult{{FilePath: path, Error: Message(err), Err: err}}
	}

	path, err := w.locator.TranslationFile(docPath)
	if err != nil {
		return fail("", err)
	}
	doc, err := w.load(path)
	if err != nil {
		return fail(path, err)
	}

	existing := doc.Keys()
	for _, e := range entries {
		if err := checkKey(e.Key, existing, overwrite); err != nil {
			return fail(path, err)
		}
		if err := doc.Set(e.Key, e.Value); err != nil {
			return fail(path, err)
		}
	}

	data, err := doc.Marshal()
	if err != nil {
		return fail(path, err)
	}
	if err := w.files.WriteFile(path, data); err != nil {
		return fail(path, err)
	}

	results := make([]WriteResult, len(entries))
	for i, e := range entries {
		log.Infof("added %q to %s", e.Key, path)
		results[i] = WriteResult{Success: true, FilePath: path, KeyAdded: e.Key}
	}
	return results
}

// KeyError ties a conflict to the key that caused it.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string { return fmt.Sprintf("%s: %s", e.Err, e.Key) }

func (e *KeyError) Unwrap() error { return e.Err }

func checkKey(key string, existing []string, overwrite bool) error {
	if key == "" {
		return fmt.Errorf("empty translation key")
	}
	for _, k := range existing {
		if k == key && !overwrite {
			return &KeyError{Key: key, Err: ErrKeyExists}
		}
		if strings.HasPrefix(k, key+".") {
			return &KeyError{Key: key, Err: ErrGroupExists}
		}
		if strings.HasPrefix(key, k+".") && !overwrite {
			// A leaf would have to become a group.
			return &KeyError{Key: k, Err: ErrKeyExists}
		}
	}
	return nil
}

// Message renders a write error the way it is shown to the user.
func Message(err error) string {
	var keyErr *KeyError
	switch {
	case errors.Is(err, resolve.ErrNoConfig):
		return "Could not find translation file. Make sure slang.yml is configured properly."
	case errors.As(err, &keyErr) && errors.Is(err, ErrGroupExists):
		return fmt.Sprintf("Translation key '%s' is already used as a group of keys.", keyErr.Key)
	case errors.As(err, &keyErr):
		return fmt.Sprintf("Translation key '%s' already exists.", keyErr.Key)
	}
	return fmt.Sprintf("Failed to add translation: %v", err)
}

// ---------------------------------------------------------------------------
// Formats
// ---------------------------------------------------------------------------

// document is a translation source being edited.
type document interface {
	Keys() []string
	Set(key, value string) error
	Marshal() ([]byte, error)
}

func (w *Writer) load(path string) (document, error) {
	data, err := w.files.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	switch lower := strings.ToLower(path); {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		f, err := yamlfile.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return yamlDoc{f}, nil
	case strings.HasSuffix(lower, ".arb"):
		f, err := arbfile.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return arbDoc{f}, nil
	default:
		obj, err := jsontree.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return jsonDoc{obj}, nil
	}
}

type jsonDoc struct{ obj *jsontree.Object }

func (d jsonDoc) Keys() []string { return d.obj.FlatKeys() }

func (d jsonDoc) Set(key, value string) error {
	d.obj.SetPath(strings.Split(key, "."), value)
	return nil
}

func (d jsonDoc) Marshal() ([]byte, error) { return d.obj.Marshal() }

type yamlDoc struct{ f *yamlfile.File }

func (d yamlDoc) Keys() []string { return d.f.Keys() }

func (d yamlDoc) Set(key, value string) error {
	return d.f.Set(strings.Split(key, "."), value)
}

func (d yamlDoc) Marshal() ([]byte, error) { return d.f.Marshal() }

type arbDoc struct{ f *arbfile.File }

func (d arbDoc) Keys() []string { return d.f.Keys() }

func (d arbDoc) Set(key, value string) error {
	if strings.Contains(key, ".") {
		return fmt.Errorf("%w: ARB files are flat, %q is nested", ErrUnsupportedStore, key)
	}
	return d.f.Set(key, value)
}

func (d arbDoc) Marshal() ([]byte, error) { return d.f.Marshal() }
