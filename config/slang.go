// Package config — slang.yaml project configuration.
//
// A slang project declares where its translation sources live in a
// slang.yaml (or slang.yml) file next to pubspec.yaml. Only the keys that
// decide where the base-locale file is found are read; every other slang
// option is ignored.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var log = commonlog.GetLogger("slangref.config")

// FileNames are the recognised configuration file names.
var FileNames = []string{"slang.yml", "slang.yaml"}

// Defaults applied to keys missing from the file.
const (
	DefaultBaseLocale       = "en"
	DefaultInputDirectory   = "i18n"
	DefaultOutputDirectory  = "lib/i18n"
	DefaultInputFilePattern = ".json"
	DefaultFallbackStrategy = "base_locale"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// File is the subset of slang.yaml this tool reads.
type File struct {
	BaseLocale       string `yaml:"base_locale,omitempty"`
	InputDirectory   string `yaml:"input_directory,omitempty"`
	OutputDirectory  string `yaml:"output_directory,omitempty"`
	InputFilePattern string `yaml:"input_file_pattern,omitempty"`
	FallbackStrategy string `yaml:"fallback_strategy,omitempty"`
}

// Resolved is a loaded configuration with defaults applied, anchored at the
// directory containing the configuration file.
type Resolved struct {
	File
	// Path is the configuration file itself.
	Path string
	// Dir is the directory containing Path; relative settings resolve
	// against it.
	Dir string
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Parse normalizes configuration content that was read from path.
func Parse(data []byte, path string) (*Resolved, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if f.BaseLocale == "" {
		f.BaseLocale = DefaultBaseLocale
	}
	if f.InputDirectory == "" {
		f.InputDirectory = DefaultInputDirectory
	}
	if f.OutputDirectory == "" {
		f.OutputDirectory = DefaultOutputDirectory
	}
	if f.InputFilePattern == "" {
		f.InputFilePattern = DefaultInputFilePattern
	}
	if f.FallbackStrategy == "" {
		f.FallbackStrategy = DefaultFallbackStrategy
	}

	if _, err := language.Parse(f.BaseLocale); err != nil {
		log.Warningf("%s: base_locale %q is not a valid language tag", path, f.BaseLocale)
	}

	return &Resolved{File: f, Path: path, Dir: filepath.Dir(path)}, nil
}

// InputDir returns the absolute directory holding the translation sources.
func (r *Resolved) InputDir() string {
	return filepath.Join(r.Dir, r.InputDirectory)
}

// BaseLocaleFile returns the path of the base-locale translation source,
// e.g. <dir>/i18n/en.json.
func (r *Resolved) BaseLocaleFile() string {
	return filepath.Join(r.InputDir(), r.BaseLocale+r.InputFilePattern)
}

// BaseLocaleTag parses the configured base locale.
func (r *Resolved) BaseLocaleTag() (language.Tag, error) {
	return language.Parse(r.BaseLocale)
}

// LocaleFiles maps every locale that has a translation source in the input
// directory to its files. Both <locale><pattern> and
// <namespace>_<locale><pattern> file names are recognised, so one locale may
// span several files.
func (r *Resolved) LocaleFiles() map[string][]string {
	entries, err := os.ReadDir(r.InputDir())
	if err != nil {
		return nil
	}

	files := make(map[string][]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, r.InputFilePattern) {
			continue
		}
		lang := strings.TrimSuffix(name, r.InputFilePattern)
		if idx := strings.LastIndexByte(lang, '_'); idx >= 0 {
			if _, err := language.Parse(lang); err != nil {
				lang = lang[idx+1:]
			}
		}
		if _, err := language.Parse(lang); err != nil {
			continue
		}
		files[lang] = append(files[lang], filepath.Join(r.InputDir(), name))
	}
	return files
}

// Locales lists the locales of LocaleFiles, sorted.
func (r *Resolved) Locales() []string {
	files := r.LocaleFiles()
	langs := make([]string, 0, len(files))
	for lang := range files {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	if len(langs) == 0 {
		return nil
	}
	return langs
}

// ---------------------------------------------------------------------------
// Cache
// ---------------------------------------------------------------------------

// ReadFunc reads a whole file.
type ReadFunc func(path string) ([]byte, error)

// Cache memoizes loaded configurations by file path until cleared.
type Cache struct {
	read    ReadFunc
	mu      sync.Mutex
	entries map[string]*Resolved
}

// NewCache returns an empty cache reading files with read, or from the local
// disk when read is nil.
func NewCache(read ReadFunc) *Cache {
	if read == nil {
		read = os.ReadFile
	}
	return &Cache{read: read, entries: make(map[string]*Resolved)}
}

// Get returns the configuration at path, loading it on first use. Failed
// loads are not cached.
func (c *Cache) Get(path string) (*Resolved, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.entries[path]; ok {
		return r, nil
	}
	data, err := c.read(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	r, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	c.entries[path] = r
	return r, nil
}

// Len returns the number of cached configurations.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every cached configuration.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Resolved)
}
