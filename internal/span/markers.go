package span

import (
	"fmt"
	"regexp"
	"strings"
)

// Anchor is a literal or pattern searched with first-match semantics.
type Anchor interface {
	// Find returns the first match at or after from.
	Find(text string, from int) (start, end int, ok bool)
	String() string
}

type textAnchor string

// Text returns an anchor matching s literally.
func Text(s string) Anchor { return textAnchor(s) }

func (a textAnchor) Find(text string, from int) (int, int, bool) {
	if a == "" || from > len(text) {
		return 0, 0, false
	}
	i := strings.Index(text[from:], string(a))
	if i < 0 {
		return 0, 0, false
	}
	return from + i, from + i + len(a), true
}

func (a textAnchor) String() string { return fmt.Sprintf("%q", string(a)) }

type patternAnchor struct{ re *regexp.Regexp }

// Pattern returns an anchor matching re.
func Pattern(re *regexp.Regexp) Anchor { return patternAnchor{re: re} }

func (a patternAnchor) Find(text string, from int) (int, int, bool) {
	if from > len(text) {
		return 0, 0, false
	}
	loc := a.re.FindStringIndex(text[from:])
	if loc == nil {
		return 0, 0, false
	}
	return from + loc[0], from + loc[1], true
}

func (a patternAnchor) String() string { return "/" + a.re.String() + "/" }

type nthAnchor struct {
	a Anchor
	n int
}

// Nth returns an anchor matching the n-th (1-based) non-overlapping match of
// a. It is how a repeated block is told apart from its first copy.
func Nth(a Anchor, n int) Anchor { return nthAnchor{a: a, n: n} }

func (a nthAnchor) Find(text string, from int) (int, int, bool) {
	if a.n < 1 {
		return 0, 0, false
	}
	var start, end int
	for i := 0; i < a.n; i++ {
		var ok bool
		if start, end, ok = a.a.Find(text, from); !ok {
			return 0, 0, false
		}
		from = max(end, start+1)
	}
	return start, end, true
}

func (a nthAnchor) String() string { return fmt.Sprintf("%s #%d", a.a, a.n) }

// Markers selects the region between the first Start match and the first End
// match found after it.
//
// Without WholeLines the span runs between the markers, each marker included
// only when its Include flag is set. With WholeLines the span is widened to
// whole lines: the start marker's line is kept out unless IncludeStart, the
// end marker's line unless IncludeEnd.
type Markers struct {
	Start        Anchor
	End          Anchor
	IncludeStart bool
	IncludeEnd   bool
	WholeLines   bool
}

func (m Markers) String() string {
	return fmt.Sprintf("markers %s..%s", m.Start, m.End)
}

// Locate implements Locator.
func (m Markers) Locate(text string) (Span, error) {
	s0, s1, ok := m.Start.Find(text, 0)
	if !ok {
		return Span{}, &NotFoundError{Locator: m.String(), Detail: "start marker " + m.Start.String()}
	}
	e0, e1, ok := m.End.Find(text, s1)
	if !ok {
		return Span{}, &NotFoundError{Locator: m.String(), Detail: fmt.Sprintf("end marker %s after line %d", m.End, LineAt(text, s0))}
	}

	if !m.WholeLines {
		sp := Span{Start: s1, End: e0}
		if m.IncludeStart {
			sp.Start = s0
		}
		if m.IncludeEnd {
			sp.End = e1
		}
		return sp, nil
	}

	sp := Span{Start: lineStart(text, s0), End: lineStart(text, e0)}
	if !m.IncludeStart {
		sp.Start = lineNext(text, lastByte(s0, s1))
	}
	if m.IncludeEnd {
		sp.End = lineNext(text, lastByte(e0, e1))
	}
	if sp.End < sp.Start {
		return Span{}, &NotFoundError{Locator: m.String(), Detail: fmt.Sprintf("end marker shares line %d with the start marker", LineAt(text, e0))}
	}
	return sp, nil
}

func lastByte(start, end int) int {
	if end > start {
		return end - 1
	}
	return start
}

// Match selects the first match of Re, or of its capture group Group when
// Group > 0.
type Match struct {
	Re    *regexp.Regexp
	Group int
}

func (m Match) String() string {
	if m.Group > 0 {
		return fmt.Sprintf("pattern /%s/ group %d", m.Re, m.Group)
	}
	return fmt.Sprintf("pattern /%s/", m.Re)
}

// Locate implements Locator.
func (m Match) Locate(text string) (Span, error) {
	if m.Group < 0 || m.Group > m.Re.NumSubexp() {
		return Span{}, fmt.Errorf("%s: pattern has %d groups", m, m.Re.NumSubexp())
	}
	loc := m.Re.FindStringSubmatchIndex(text)
	if loc == nil {
		return Span{}, &NotFoundError{Locator: m.String()}
	}
	if loc[2*m.Group] < 0 {
		return Span{}, &NotFoundError{Locator: m.String(), Detail: "group did not participate in the match"}
	}
	return Span{Start: loc[2*m.Group], End: loc[2*m.Group+1]}, nil
}
