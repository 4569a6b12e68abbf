package resolve

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/slang-tools/slangref/arbfile"
	"github.com/slang-tools/slangref/jsontree"
	"github.com/slang-tools/slangref/yamlfile"
)

// Table is a flattened base-locale translation source: dotted keys mapped to
// display text, in source document order.
type Table struct {
	keys   []string
	values map[string]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: make(map[string]string)}
}

// Add appends a key, or replaces its value keeping the original position.
func (t *Table) Add(key, value string) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = value
}

// Keys returns the flattened keys in document order.
func (t *Table) Keys() []string {
	return append([]string(nil), t.keys...)
}

// Len returns the number of keys.
func (t *Table) Len() int { return len(t.keys) }

// Get returns the value of an exact key.
func (t *Table) Get(key string) (string, bool) {
	v, ok := t.values[key]
	return v, ok
}

var upperRe = regexp.MustCompile(`[A-Z]`)

// Lookup resolves name by exact key, then its snake_case and kebab-case
// forms, then the first key in document order where either one ends with
// the other.
func (t *Table) Lookup(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if v, ok := t.values[name]; ok {
		return v, true
	}
	if v, ok := t.values[CamelToSnake(name)]; ok {
		return v, true
	}
	if v, ok := t.values[CamelToKebab(name)]; ok {
		return v, true
	}
	for _, k := range t.keys {
		if strings.HasSuffix(k, name) || strings.HasSuffix(name, k) {
			return t.values[k], true
		}
	}
	return "", false
}

// CamelToSnake puts an underscore before every capital letter and lowers it.
func CamelToSnake(s string) string {
	return upperRe.ReplaceAllStringFunc(s, func(m string) string {
		return "_" + strings.ToLower(m)
	})
}

// CamelToKebab puts a hyphen before every capital letter and lowers it.
func CamelToKebab(s string) string {
	return upperRe.ReplaceAllStringFunc(s, func(m string) string {
		return "-" + strings.ToLower(m)
	})
}

// ParseTable decodes a translation source according to the extension of
// path: YAML, ARB or, by default, JSON.
func ParseTable(path string, data []byte) (*Table, error) {
	t := NewTable()
	switch lower := strings.ToLower(path); {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		f, err := yamlfile.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, e := range f.Entries() {
			t.Add(e.Path, e.Value)
		}
	case strings.HasSuffix(lower, ".arb"):
		f, err := arbfile.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, k := range f.Keys() {
			v, _ := f.Get(k)
			t.Add(k, v)
		}
	default:
		obj, err := jsontree.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, p := range obj.Flatten() {
			t.Add(p.Key, p.Value)
		}
	}
	return t, nil
}
