// Package settings edits the small JSON files under a vault's .obsidian
// directory while keeping their key order.
package settings

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ParseError reports a JSON file that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse JSON: %v", e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Object is a JSON object that remembers the order of its top-level keys.
// Nested objects are decoded as plain maps.
type Object struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{m: orderedmap.New[string, any]()}
}

// ParseObject decodes raw, which must hold a JSON object. path only labels
// errors.
func ParseObject(path string, raw []byte) (*Object, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("not a JSON object")}
	}
	o := NewObject()
	if err := json.Unmarshal(trimmed, o.m); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return o, nil
}

func (o *Object) Get(key string) (any, bool) { return o.m.Get(key) }

func (o *Object) Has(key string) bool {
	_, ok := o.m.Get(key)
	return ok
}

// Set stores value under key, appending the key if it is new.
func (o *Object) Set(key string, value any) { o.m.Set(key, value) }

func (o *Object) Len() int { return o.m.Len() }

// Keys returns the keys in document order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.m.Len())
	for p := o.m.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// MarshalJSON encodes the object in key order without HTML escaping.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for p := o.m.Oldest(); p != nil; p = p.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		if err := encode(&buf, p.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := encode(&buf, p.Value); err != nil {
			return nil, fmt.Errorf("encode %q: %w", p.Key, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
	return nil
}

// Marshal renders v the way Obsidian and the vault scripts write settings:
// two-space indent, non-ASCII kept literal, trailing newline.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
