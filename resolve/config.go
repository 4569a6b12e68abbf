package resolve

import (
	"errors"
	"fmt"
	"sync"

	"github.com/slang-tools/slangref/config"
	"github.com/slang-tools/slangref/detect"
	"github.com/slang-tools/slangref/workspace"
)

// ErrNoConfig is returned when no slang configuration file exists in the
// workspace.
var ErrNoConfig = errors.New("no slang configuration file found")

// ConfigResolver resolves names through slang.yaml and the base-locale
// translation source it points to.
type ConfigResolver struct {
	files   workspace.Files
	configs *config.Cache

	mu     sync.Mutex
	tables map[string]*Table
}

// NewConfigResolver returns a resolver reading through files.
func NewConfigResolver(files workspace.Files) *ConfigResolver {
	return &ConfigResolver{
		files:   files,
		configs: config.NewCache(files.ReadFile),
		tables:  make(map[string]*Table),
	}
}

// Config returns the configuration nearest to docPath.
func (r *ConfigResolver) Config(docPath string) (*config.Resolved, error) {
	candidates, err := r.files.Find(config.FileNames...)
	if err != nil {
		return nil, fmt.Errorf("locating slang configuration: %w", err)
	}
	path, ok := workspace.Nearest(docPath, candidates)
	if !ok {
		return nil, ErrNoConfig
	}
	return r.configs.Get(path)
}

// TranslationFile returns the base-locale source file for docPath.
func (r *ConfigResolver) TranslationFile(docPath string) (string, error) {
	cfg, err := r.Config(docPath)
	if err != nil {
		return "", err
	}
	return cfg.BaseLocaleFile(), nil
}

// Table returns the flattened base-locale table for docPath.
func (r *ConfigResolver) Table(docPath string) (*Table, error) {
	path, err := r.TranslationFile(docPath)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tables[path]; ok {
		return t, nil
	}
	data, err := r.files.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	t, err := ParseTable(path, data)
	if err != nil {
		return nil, err
	}
	r.tables[path] = t
	log.Debugf("loaded %d key(s) from %s", t.Len(), path)
	return t, nil
}

// Resolve looks name up in the table for docPath.
func (r *ConfigResolver) Resolve(name, docPath string) (string, bool) {
	t, err := r.Table(docPath)
	if err != nil {
		log.Debugf("resolving %q for %s: %s", name, docPath, err)
		return "", false
	}
	return t.Lookup(name)
}

// ResolveAccessor tries the accessor's full dotted path as an exact key
// before falling back to name lookup.
func (r *ConfigResolver) ResolveAccessor(acc detect.Accessor, docPath string) (string, bool) {
	t, err := r.Table(docPath)
	if err != nil {
		log.Debugf("resolving %q for %s: %s", acc.Path, docPath, err)
		return "", false
	}
	if v, ok := t.Get(acc.Path); ok {
		return v, true
	}
	return t.Lookup(acc.Name)
}

// ClearCache drops cached configurations and tables.
func (r *ConfigResolver) ClearCache() {
	r.configs.Clear()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tables = make(map[string]*Table)
}

// ConfigStats describes the config resolver caches.
type ConfigStats struct {
	Configs int
	Tables  int
}

// Stats reports the cache sizes.
func (r *ConfigResolver) Stats() ConfigStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ConfigStats{Configs: r.configs.Len(), Tables: len(r.tables)}
}
