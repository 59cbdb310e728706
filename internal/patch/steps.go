package patch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/agentic-research/vaultpatch/internal/rewrite"
	"github.com/agentic-research/vaultpatch/internal/span"
)

// Splice replaces the single span found by Locator. Replacement follows the
// line ending of the text it goes into.
type Splice struct {
	Locator     span.Locator
	Replacement string
	Note        string
}

func (s Splice) Describe() string { return "splice " + s.Locator.String() }

func (s Splice) Apply(text string) (string, Outcome, error) {
	out, sp, err := span.Replace(text, s.Locator, span.WithLineEnding(s.Replacement, span.LineEnding(text)))
	if err != nil {
		return text, Outcome{}, err
	}
	return out, Outcome{
		Changed: out != text,
		Count:   1,
		Note:    note(s.Note, fmt.Sprintf("replaced %d bytes at line %d", sp.Len(), span.LineAt(text, sp.Start))),
	}, nil
}

// Delete removes the single span found by Locator.
type Delete struct {
	Locator span.Locator
	Note    string
}

func (d Delete) Describe() string { return "delete " + d.Locator.String() }

func (d Delete) Apply(text string) (string, Outcome, error) {
	out, sp, err := span.Replace(text, d.Locator, "")
	if err != nil {
		return text, Outcome{}, err
	}
	return out, Outcome{
		Changed: sp.Len() > 0,
		Count:   1,
		Note: note(d.Note, fmt.Sprintf("removed lines %d-%d",
			span.LineAt(text, sp.Start), span.LineAt(text, max(sp.Start, sp.End-1)))),
	}, nil
}

// Literal replaces Old with New, the first occurrence or every one with All.
// In a CRLF text both are matched and inserted with CRLF terminators.
type Literal struct {
	Old      string
	New      string
	All      bool
	Optional bool
	Note     string
}

func (l Literal) Describe() string {
	return fmt.Sprintf("replace literal %q", abbrev(l.Old))
}

func (l Literal) Apply(text string) (string, Outcome, error) {
	eol := span.LineEnding(text)
	old := l.Old
	n := strings.Count(text, old)
	if n == 0 && old != "" {
		old = span.WithLineEnding(old, eol)
		n = strings.Count(text, old)
	}
	if old == "" || n == 0 {
		if l.Optional {
			return text, Outcome{Note: "not present"}, nil
		}
		return text, Outcome{}, &span.NotFoundError{Locator: fmt.Sprintf("literal %q", abbrev(l.Old))}
	}
	if !l.All {
		n = 1
	}
	out := strings.Replace(text, old, span.WithLineEnding(l.New, eol), n)
	return out, Outcome{Changed: out != text, Count: n, Note: note(l.Note, fmt.Sprintf("%d occurrence(s) replaced", n))}, nil
}

// Regex replaces matches of Re with Repl, expanding $1-style references.
// Limit caps the number of replacements; zero means all. Line breaks written
// in Repl follow the text; captured groups are copied byte for byte.
type Regex struct {
	Re       *regexp.Regexp
	Repl     string
	Limit    int
	Optional bool
	Note     string
}

func (r Regex) Describe() string { return fmt.Sprintf("replace /%s/", r.Re) }

func (r Regex) Apply(text string) (string, Outcome, error) {
	repl := span.WithLineEnding(r.Repl, span.LineEnding(text))
	return replaceMatches(text, r.Re, r.Limit, r.Optional, r.Note, func(src string, loc []int) (string, bool) {
		return string(r.Re.ExpandString(nil, repl, src, loc)), true
	})
}

// RegexFunc lets Func decide per match. Func receives the full text and the
// submatch indexes, and returns the replacement for the whole match or false
// to leave it. The replacement is used as is; Func picks its own line
// endings (see span.LineEnding).
type RegexFunc struct {
	Re       *regexp.Regexp
	Func     func(src string, loc []int) (string, bool)
	Limit    int
	Optional bool
	Note     string
}

func (r RegexFunc) Describe() string { return fmt.Sprintf("rewrite /%s/", r.Re) }

func (r RegexFunc) Apply(text string) (string, Outcome, error) {
	return replaceMatches(text, r.Re, r.Limit, r.Optional, r.Note, r.Func)
}

func replaceMatches(text string, re *regexp.Regexp, limit int, optional bool, custom string, fn func(string, []int) (string, bool)) (string, Outcome, error) {
	matches := re.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		if optional {
			return text, Outcome{Note: "not present"}, nil
		}
		return text, Outcome{}, &span.NotFoundError{Locator: fmt.Sprintf("pattern /%s/", re)}
	}

	var b strings.Builder
	last, n := 0, 0
	for _, loc := range matches {
		if limit > 0 && n >= limit {
			break
		}
		repl, ok := fn(text, loc)
		if !ok {
			continue
		}
		b.WriteString(text[last:loc[0]])
		b.WriteString(repl)
		last = loc[1]
		n++
	}
	b.WriteString(text[last:])
	out := b.String()

	o := Outcome{Changed: out != text, Count: n}
	switch {
	case n == 0:
		o.Note = "already applied"
	default:
		o.Note = note(custom, fmt.Sprintf("%d match(es) rewritten", n))
	}
	return out, o, nil
}

// InsertBefore inserts Text before the first match of Anchor. When Unless is
// found in the text the step is a no-op. With AppendIfMissing a missing
// anchor appends Text at the end instead of failing. Text follows the line
// ending of the file.
type InsertBefore struct {
	Anchor          span.Anchor
	Text            string
	Unless          string
	AppendIfMissing bool
	Note            string
}

func (i InsertBefore) Describe() string { return "insert before " + i.Anchor.String() }

func (i InsertBefore) Apply(text string) (string, Outcome, error) {
	if i.Unless != "" && strings.Contains(text, i.Unless) {
		return text, Outcome{Note: "already present"}, nil
	}
	ins := span.WithLineEnding(i.Text, span.LineEnding(text))
	start, _, ok := i.Anchor.Find(text, 0)
	if !ok {
		if !i.AppendIfMissing {
			return text, Outcome{}, &span.NotFoundError{Locator: "anchor " + i.Anchor.String()}
		}
		return text + ins, Outcome{Changed: true, Count: 1, Note: note(i.Note, "appended at end of file")}, nil
	}
	out := text[:start] + ins + text[start:]
	return out, Outcome{Changed: true, Count: 1, Note: note(i.Note, fmt.Sprintf("inserted at line %d", span.LineAt(text, start)))}, nil
}

// InsertAfter inserts Text right after the first match of Anchor, unless
// Unless is already in the text.
type InsertAfter struct {
	Anchor span.Anchor
	Text   string
	Unless string
	Note   string
}

func (i InsertAfter) Describe() string { return "insert after " + i.Anchor.String() }

func (i InsertAfter) Apply(text string) (string, Outcome, error) {
	if i.Unless != "" && strings.Contains(text, i.Unless) {
		return text, Outcome{Note: "already present"}, nil
	}
	_, end, ok := i.Anchor.Find(text, 0)
	if !ok {
		return text, Outcome{}, &span.NotFoundError{Locator: "anchor " + i.Anchor.String()}
	}
	out := text[:end] + span.WithLineEnding(i.Text, span.LineEnding(text)) + text[end:]
	return out, Outcome{Changed: true, Count: 1, Note: note(i.Note, fmt.Sprintf("inserted at line %d", span.LineAt(text, end)))}, nil
}

// ConfirmModal converts confirm() guards to ConfirmModal callbacks, only on
// Lines when given. A guard whose block cannot be delimited, or a requested
// line without a guard, fails the step and leaves the text as it was. Guards
// that are delimited but not convertible (an else branch, code sharing the
// line) are skipped with a warning.
type ConfirmModal struct {
	Lines    []int
	Optional bool
}

func (c ConfirmModal) Describe() string { return "convert confirm() to ConfirmModal" }

func (c ConfirmModal) Apply(text string) (string, Outcome, error) {
	out, convs, err := rewrite.ConfirmToModal(text, c.Lines)
	if err != nil {
		return text, Outcome{}, err
	}
	if len(convs) == 0 {
		if c.Optional {
			return text, Outcome{Note: "no confirm() guards"}, nil
		}
		return text, Outcome{}, &span.NotFoundError{Locator: "confirm() guard"}
	}
	var failed []error
	for _, cv := range convs {
		if errors.Is(cv.Err, span.ErrUnbalanced) || errors.Is(cv.Err, span.ErrNotFound) {
			failed = append(failed, cv.Err)
		}
	}
	if len(failed) > 0 {
		return text, Outcome{}, errors.Join(failed...)
	}

	o := Outcome{Changed: out != text}
	for _, cv := range convs {
		if cv.Err != nil {
			o.Warnings = append(o.Warnings, fmt.Sprintf("line %d: %v", cv.Line, cv.Err))
			continue
		}
		o.Count++
	}
	o.Note = fmt.Sprintf("converted %d/%d", o.Count, len(convs))
	return out, o, nil
}

func abbrev(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + "..."
	}
	if r := []rune(s); len(r) > 60 {
		s = string(r[:60]) + "..."
	}
	return s
}
