// Package arbfile reads and writes Flutter ARB (Application Resource Bundle)
// files used as the base-locale translation store.
//
// ARB files are flat JSON objects:
//
//   - "@@locale" holds the language code.
//   - Keys starting with "@" are metadata for the key they follow and are
//     carried through unchanged.
//   - All other keys map to a message string.
//
// Key order is preserved when a file is rewritten, so adding a message only
// appends it.
package arbfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type entry struct {
	key    string
	value  string
	isMeta bool
	raw    json.RawMessage
}

// File is a parsed ARB document.
type File struct {
	locale  string
	entries []entry
	index   map[string]int
}

// New returns an empty ARB file for locale.
func New(locale string) *File {
	return &File{locale: locale, index: make(map[string]int)}
}

// Parse decodes ARB content, keeping key order. Empty input is an empty
// file.
func Parse(data []byte) (*File, error) {
	f := New("")
	if len(bytes.TrimSpace(data)) == 0 {
		return f, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing ARB: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing ARB: expected '{', got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing ARB key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing ARB: expected string key, got %T", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing ARB value for %q: %w", key, err)
		}

		if key == "@@locale" {
			_ = json.Unmarshal(raw, &f.locale)
			continue
		}

		e := entry{key: key, isMeta: strings.HasPrefix(key, "@"), raw: raw}
		if !e.isMeta {
			if err := json.Unmarshal(raw, &e.value); err != nil {
				e.value = string(bytes.TrimSpace(raw))
			}
		}
		f.index[key] = len(f.entries)
		f.entries = append(f.entries, e)
	}
	return f, nil
}

// Locale returns the @@locale value.
func (f *File) Locale() string { return f.locale }

// Keys returns the message keys in document order, metadata excluded.
func (f *File) Keys() []string {
	var keys []string
	for _, e := range f.entries {
		if !e.isMeta {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Get returns the message stored under key.
func (f *File) Get(key string) (string, bool) {
	if idx, ok := f.index[key]; ok && !f.entries[idx].isMeta {
		return f.entries[idx].value, true
	}
	return "", false
}

// Set stores a message, replacing an existing one in place or appending a
// new key at the end. Metadata keys cannot be set.
func (f *File) Set(key, value string) error {
	if strings.HasPrefix(key, "@") {
		return fmt.Errorf("ARB key %q is reserved for metadata", key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if idx, ok := f.index[key]; ok {
		f.entries[idx].value = value
		f.entries[idx].raw = raw
		return nil
	}
	f.index[key] = len(f.entries)
	f.entries = append(f.entries, entry{key: key, value: value, raw: raw})
	return nil
}

// Marshal serialises the file with 2-space indentation, @@locale first.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")

	first := true
	sep := func() {
		if !first {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		first = false
	}

	if f.locale != "" {
		sep()
		raw, _ := json.Marshal(f.locale)
		buf.WriteString(`"@@locale": `)
		buf.Write(raw)
	}

	for _, e := range f.entries {
		sep()
		keyBytes, _ := json.Marshal(e.key)
		buf.Write(keyBytes)
		buf.WriteString(": ")
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, e.raw, "  ", "  "); err != nil {
			return nil, fmt.Errorf("encoding ARB value for %q: %w", e.key, err)
		}
		buf.Write(pretty.Bytes())
	}

	if first {
		buf.WriteString("}\n")
	} else {
		buf.WriteString("\n}\n")
	}
	return buf.Bytes(), nil
}
