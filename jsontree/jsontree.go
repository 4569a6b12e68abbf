// Package jsontree models nested JSON translation documents as ordered
// objects.
//
// Key order from the source file is preserved on parse and on marshal, so a
// file rewritten after adding a key differs from the original only by the
// added key. Values are either nested *Object values or raw JSON leaves
// (strings, numbers, booleans, null, arrays) kept verbatim.
package jsontree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Model
// ---------------------------------------------------------------------------

// Object is an ordered JSON object.
type Object struct {
	keys   []string
	values map[string]any // *Object or json.RawMessage
}

// New returns an empty object.
func New() *Object {
	return &Object{values: make(map[string]any)}
}

// Keys returns the member names in document order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of members.
func (o *Object) Len() int { return len(o.keys) }

// Child returns the nested object stored under key.
func (o *Object) Child(key string) (*Object, bool) {
	child, ok := o.values[key].(*Object)
	return child, ok
}

func (o *Object) put(key string, v any) {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// SetString stores a string leaf under key.
func (o *Object) SetString(key, value string) {
	o.put(key, json.RawMessage(quote(value)))
}

// SetRaw stores an arbitrary JSON leaf under key.
func (o *Object) SetRaw(key string, raw json.RawMessage) {
	o.put(key, raw)
}

// SetObject stores a nested object under key.
func (o *Object) SetObject(key string, child *Object) {
	o.put(key, child)
}

// SetPath stores value at the dotted path segments, creating intermediate
// objects and replacing any leaf that stands where an object is needed.
func (o *Object) SetPath(path []string, value string) {
	cur := o
	for _, seg := range path[:len(path)-1] {
		child, ok := cur.Child(seg)
		if !ok {
			child = New()
			cur.SetObject(seg, child)
		}
		cur = child
	}
	cur.SetString(path[len(path)-1], value)
}

// Lookup returns the value at a dotted path: *Object or json.RawMessage.
func (o *Object) Lookup(path []string) (any, bool) {
	cur := o
	for i, seg := range path {
		v, ok := cur.values[seg]
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return v, true
		}
		if cur, ok = v.(*Object); !ok {
			return nil, false
		}
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// Parse decodes a JSON object, preserving member order. Empty or
// whitespace-only input yields an empty object.
func Parse(data []byte) (*Object, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return New(), nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	obj, err := parseObject(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("parsing JSON: unexpected data after top-level object")
	}
	return obj, nil
}

func parseObject(dec *json.Decoder) (*Object, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parsing JSON: expected '{', got %v", tok)
	}

	obj := New()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parsing JSON key: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("parsing JSON: expected string key, got %T", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing JSON value for %q: %w", key, err)
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
			child, err := parseObject(json.NewDecoder(bytes.NewReader(trimmed)))
			if err != nil {
				return nil, err
			}
			obj.SetObject(key, child)
			continue
		}
		obj.SetRaw(key, raw)
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return obj, nil
}

// ---------------------------------------------------------------------------
// Flattening
// ---------------------------------------------------------------------------

// Pair is one flattened leaf.
type Pair struct {
	Key   string
	Value string
}

// Flatten lists every leaf as a dotted key in document order. String leaves
// are unquoted; other leaves are rendered as compact JSON text.
func (o *Object) Flatten() []Pair {
	var out []Pair
	o.flatten("", &out)
	return out
}

func (o *Object) flatten(prefix string, out *[]Pair) {
	for _, k := range o.keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := o.values[k].(type) {
		case *Object:
			v.flatten(path, out)
		case json.RawMessage:
			*out = append(*out, Pair{Key: path, Value: LeafText(v)})
		}
	}
}

// FlatKeys returns the dotted keys of every leaf in document order.
func (o *Object) FlatKeys() []string {
	pairs := o.Flatten()
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.Key
	}
	return keys
}

// LeafText renders a raw leaf: strings unquoted, anything else compact.
func LeafText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}

// Unflatten rebuilds a nested object from flattened pairs. Values become
// string leaves.
func Unflatten(pairs []Pair) *Object {
	obj := New()
	for _, p := range pairs {
		obj.SetPath(strings.Split(p.Key, "."), p.Value)
	}
	return obj
}

// ---------------------------------------------------------------------------
// Serialization
// ---------------------------------------------------------------------------

// Marshal serialises the object with 2-space indentation and a trailing
// newline.
func (o *Object) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := o.write(&buf, ""); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (o *Object) write(buf *bytes.Buffer, indent string) error {
	if len(o.keys) == 0 {
		buf.WriteString("{}")
		return nil
	}
	inner := indent + "  "
	buf.WriteString("{\n")
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteString(",\n")
		}
		buf.WriteString(inner)
		buf.WriteString(quote(k))
		buf.WriteString(": ")
		switch v := o.values[k].(type) {
		case *Object:
			if err := v.write(buf, inner); err != nil {
				return err
			}
		case json.RawMessage:
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, v, inner, "  "); err != nil {
				return fmt.Errorf("encoding %q: %w", k, err)
			}
			buf.Write(pretty.Bytes())
		}
	}
	buf.WriteString("\n")
	buf.WriteString(indent)
	buf.WriteString("}")
	return nil
}

// quote encodes s as a JSON string without HTML escaping.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
