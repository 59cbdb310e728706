// Package diff renders unified diffs for dry runs, using the sergi/go-diff
// line mode.
package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultContext is the number of unchanged lines shown around a change.
const DefaultContext = 3

type op struct {
	kind byte // ' ', '-' or '+'
	text string
}

// Unified returns a unified diff of old and new labelled with path, or ""
// when they are equal.
func Unified(path, old, new string, context int) string {
	if old == new {
		return ""
	}
	if context < 0 {
		context = DefaultContext
	}

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	a, b, lines := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lines)

	var ops []op
	for _, d := range diffs {
		kind := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = '-'
		case diffmatchpatch.DiffInsert:
			kind = '+'
		}
		for _, l := range strings.SplitAfter(d.Text, "\n") {
			if l != "" {
				ops = append(ops, op{kind: kind, text: l})
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- a/%s\n+++ b/%s\n", path, path)
	for _, h := range hunks(ops, context) {
		writeHunk(&sb, ops, h)
	}
	return sb.String()
}

type hunk struct{ from, to int } // ops[from:to]

func hunks(ops []op, context int) []hunk {
	var out []hunk
	for i := 0; i < len(ops); i++ {
		if ops[i].kind == ' ' {
			continue
		}
		from := max(0, i-context)
		to := i + 1
		// extend while the next change is close enough to share context
		for j := to; j < len(ops); j++ {
			if ops[j].kind != ' ' {
				to = j + 1
				continue
			}
			if j-to >= 2*context {
				break
			}
		}
		to = min(len(ops), to+context)
		if n := len(out); n > 0 && from <= out[n-1].to {
			out[n-1].to = to
		} else {
			out = append(out, hunk{from: from, to: to})
		}
		i = to - 1
	}
	return out
}

func writeHunk(b *strings.Builder, ops []op, h hunk) {
	oldLine, newLine := 1, 1
	for _, o := range ops[:h.from] {
		if o.kind != '+' {
			oldLine++
		}
		if o.kind != '-' {
			newLine++
		}
	}
	var oldCount, newCount int
	for _, o := range ops[h.from:h.to] {
		if o.kind != '+' {
			oldCount++
		}
		if o.kind != '-' {
			newCount++
		}
	}
	fmt.Fprintf(b, "@@ -%s +%s @@\n", rangeOf(oldLine, oldCount), rangeOf(newLine, newCount))
	for _, o := range ops[h.from:h.to] {
		b.WriteByte(o.kind)
		b.WriteString(o.text)
		if !strings.HasSuffix(o.text, "\n") {
			b.WriteString("\n\\ No newline at end of file\n")
		}
	}
}

func rangeOf(start, count int) string {
	switch count {
	case 0:
		return fmt.Sprintf("%d,0", start-1)
	case 1:
		return fmt.Sprintf("%d", start)
	default:
		return fmt.Sprintf("%d,%d", start, count)
	}
}
