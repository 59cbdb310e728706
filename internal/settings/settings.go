package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// EnabledPlugins converts core-plugins.json from the old {id: bool} form to
// the list of enabled ids in key order. A file that is already a list is
// returned as is with converted=false, so the conversion is idempotent.
func EnabledPlugins(path string, raw []byte) (ids []string, converted bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &ids); err != nil {
			return nil, false, &ParseError{Path: path, Err: err}
		}
		return ids, false, nil
	}

	obj, err := ParseObject(path, raw)
	if err != nil {
		return nil, false, err
	}
	ids = []string{}
	for _, k := range obj.Keys() {
		if v, _ := obj.Get(k); v == true {
			ids = append(ids, k)
		}
	}
	return ids, true, nil
}

// Appearance is the subset of appearance.json the theme setup manages.
type Appearance struct {
	CSSTheme      *string // set only when the key is absent
	Snippets      []string
	BaseFontSize  int
	TextFont      string
	MonospaceFont string
}

const snippetsKey = "enabledCssSnippets"

// ApplyAppearance merges a into obj and returns a note per changed key.
func ApplyAppearance(obj *Object, a Appearance) []string {
	var notes []string
	if a.CSSTheme != nil && !obj.Has("cssTheme") {
		obj.Set("cssTheme", *a.CSSTheme)
		notes = append(notes, fmt.Sprintf("cssTheme = %q", *a.CSSTheme))
	}

	if len(a.Snippets) > 0 {
		var current []any
		if v, ok := obj.Get(snippetsKey); ok {
			current, _ = v.([]any)
		}
		added := false
		for _, s := range a.Snippets {
			if !slices.ContainsFunc(current, func(v any) bool { return v == any(s) }) {
				current = append(current, s)
				notes = append(notes, "enabled CSS snippet "+s)
				added = true
			}
		}
		if added || !obj.Has(snippetsKey) {
			obj.Set(snippetsKey, current)
		}
	}

	if a.BaseFontSize > 0 {
		notes = append(notes, setIfDifferent(obj, "baseFontSize", float64(a.BaseFontSize))...)
	}
	if a.TextFont != "" {
		notes = append(notes, setIfDifferent(obj, "textFontFamily", a.TextFont)...)
	}
	if a.MonospaceFont != "" {
		notes = append(notes, setIfDifferent(obj, "monospaceFontFamily", a.MonospaceFont)...)
	}
	return notes
}

func setIfDifferent(obj *Object, key string, value any) []string {
	if cur, ok := obj.Get(key); ok && reflect.DeepEqual(cur, value) {
		return nil
	}
	obj.Set(key, value)
	return []string{fmt.Sprintf("%s = %v", key, value)}
}

// Pair is one default for UpsertMissing.
type Pair struct {
	Key   string
	Value any
}

// UpsertMissing adds each default whose key is absent and returns the added
// keys. Existing values are never touched.
func UpsertMissing(obj *Object, defaults []Pair) []string {
	var added []string
	for _, d := range defaults {
		if obj.Has(d.Key) {
			continue
		}
		obj.Set(d.Key, d.Value)
		added = append(added, d.Key)
	}
	return added
}

// Query evaluates a JSONPath expression against raw JSON.
func Query(raw []byte, expr string) ([]any, error) {
	data, err := oj.Parse(raw)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, fmt.Errorf("parse JSONPath %q: %w", expr, err)
	}
	return x.Get(data), nil
}
