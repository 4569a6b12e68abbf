// Package yamlfile reads YAML translation files into flattened entries.
//
// The expected format is a nested map whose leaves are messages:
//
//	greeting: Hello
//	nav:
//	  home: Home
//	  about: About
//
// Nested keys are joined with "." in document order. Non-string scalars keep
// their literal text; sequences and other composite leaves are rendered as
// compact JSON so they read the same as leaves of a JSON store.
//
// The parsed node tree is kept, so a file rewritten after Set keeps its
// key order, comments and scalar styles.
package yamlfile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry is one flattened leaf.
type Entry struct {
	// Path is the dot-joined key path (e.g. "nav.home").
	Path  string
	Value string
}

// File is a parsed YAML translation file.
type File struct {
	// doc is the document node; its first child is the root mapping.
	doc     *yaml.Node
	entries []Entry
	index   map[string]int
}

// Parse parses YAML data into a File. An empty document has no entries.
func Parse(data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	f := &File{doc: &doc, index: make(map[string]int)}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return f, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("YAML root must be a mapping, got kind %d", root.Kind)
	}
	if err := collectEntries(root, "", f); err != nil {
		return nil, err
	}
	return f, nil
}

func collectEntries(node *yaml.Node, prefix string, f *File) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]
		if valNode.Kind == yaml.AliasNode && valNode.Alias != nil {
			valNode = valNode.Alias
		}

		path := keyNode.Value
		if prefix != "" {
			path = prefix + "." + keyNode.Value
		}

		switch valNode.Kind {
		case yaml.MappingNode:
			if err := collectEntries(valNode, path, f); err != nil {
				return err
			}
		case yaml.ScalarNode:
			f.add(path, valNode.Value)
		default:
			var v any
			if err := valNode.Decode(&v); err != nil {
				return fmt.Errorf("decoding YAML value at %s: %w", path, err)
			}
			text, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encoding YAML value at %s: %w", path, err)
			}
			f.add(path, string(text))
		}
	}
	return nil
}

func (f *File) add(path, value string) {
	if idx, ok := f.index[path]; ok {
		f.entries[idx].Value = value
		return
	}
	f.index[path] = len(f.entries)
	f.entries = append(f.entries, Entry{Path: path, Value: value})
}

// Entries returns all leaves in document order.
func (f *File) Entries() []Entry {
	return append([]Entry(nil), f.entries...)
}

// Keys returns all entry paths in document order.
func (f *File) Keys() []string {
	keys := make([]string, len(f.entries))
	for i, e := range f.entries {
		keys[i] = e.Path
	}
	return keys
}

// Get returns the value for the given path.
func (f *File) Get(path string) (string, bool) {
	idx, ok := f.index[path]
	if !ok {
		return "", false
	}
	return f.entries[idx].Value, true
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Set stores value at the key path, creating intermediate mappings and
// replacing any non-mapping value that stands where a mapping is needed.
func (f *File) Set(path []string, value string) error {
	if len(path) == 0 {
		return fmt.Errorf("empty key path")
	}
	cur := f.root()
	for _, seg := range path[:len(path)-1] {
		child := mappingValue(cur, seg)
		if child == nil || child.Kind != yaml.MappingNode {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			setMappingValue(cur, seg, child)
		}
		cur = child
	}
	setMappingValue(cur, path[len(path)-1], &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})

	f.entries = nil
	f.index = make(map[string]int)
	return collectEntries(f.root(), "", f)
}

// root returns the root mapping, creating the document structure when the
// file was empty.
func (f *File) root() *yaml.Node {
	if f.doc == nil {
		f.doc = &yaml.Node{}
	}
	if f.doc.Kind == 0 || len(f.doc.Content) == 0 {
		f.doc.Kind = yaml.DocumentNode
		f.doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	return f.doc.Content[0]
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func setMappingValue(m *yaml.Node, key string, v *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = v
			return
		}
	}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, v)
}

// Marshal serialises the document with 2-space indentation.
func (f *File) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	f.root()
	if err := enc.Encode(f.doc); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return buf.Bytes(), nil
}
