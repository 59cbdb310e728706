package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
version: v1
name: swipe-threshold
summary: widen swipe threshold
files:
  - path: .obsidian/plugins/quiz-sp2/main.js
    backup: true
    steps:
      - op: splice
        lines: {start: 10, end: 12, expect: "// old"}
        replacement_file: snippet.js
      - op: literal
        old: "const swipeThreshold = 50;"
        new: "const swipeThreshold = 60;"
      - op: insert_before
        anchor: {pattern: 'module\.exports = '}
        text: "// tail\n"
        unless: "// tail"
`

func TestLoadManifest_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, "swipe-threshold", m.Name)
	assert.Equal(t, dir, m.Dir)
	require.Len(t, m.Files, 1)
	assert.True(t, m.Files[0].Backup)
	require.Len(t, m.Files[0].Steps, 3)

	s := m.Files[0].Steps[0]
	require.NotNil(t, s.Lines)
	assert.Equal(t, LineRange{Start: 10, End: 12, Expect: "// old"}, *s.Lines)
	assert.Equal(t, `module\.exports = `, m.Files[0].Steps[2].Anchor.Pattern)
}

func TestParseManifest_JSON(t *testing.T) {
	m, err := ParseManifest([]byte(`{"name":"x","files":[{"path":"a.js","steps":[{"op":"confirm_modal","confirm_lines":[3,9]}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 9}, m.Files[0].Steps[0].ConfirmLines)
}

func TestParseManifest_Invalid(t *testing.T) {
	cases := map[string]string{
		"no name":        `files: [{path: a.js, steps: [{op: literal, old: x}]}]`,
		"bad version":    `{version: v9, name: x, files: [{path: a.js, steps: [{op: literal, old: x}]}]}`,
		"two locators":   `{name: x, files: [{path: a.js, steps: [{op: delete, lines: {start: 1, end: 1}, match: {pattern: x}}]}]}`,
		"unknown op":     `{name: x, files: [{path: a.js, steps: [{op: rename}]}]}`,
		"absolute path":  `{name: x, files: [{path: /etc/passwd, steps: [{op: literal, old: x}]}]}`,
		"anchor missing": `{name: x, files: [{path: a.js, steps: [{op: insert_after, text: y}]}]}`,
		"balanced head":  `{name: x, files: [{path: a.js, steps: [{op: delete, balanced: {open: "("}}]}]}`,
		"wide delimiter": `{name: x, files: [{path: a.js, steps: [{op: delete, balanced: {head: f, open: "{{"}}]}]}`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseManifest([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestParseManifest_Balanced(t *testing.T) {
	m, err := ParseManifest([]byte(`
name: drop-block
files:
  - path: a.js
    steps:
      - op: delete
        balanced: {head: 'function drop\(', window: 20, skip_quoted: true}
      - op: splice
        markers: {start: {text: "// copy", nth: 2}, end: {text: "// end"}}
        replacement: ""
`))
	require.NoError(t, err)
	b := m.Files[0].Steps[0].Balanced
	require.NotNil(t, b)
	assert.Equal(t, Balanced{Head: `function drop\(`, Window: 20, SkipQuoted: true}, *b)
	assert.Equal(t, 2, m.Files[0].Steps[1].Markers.Start.Nth)
}
