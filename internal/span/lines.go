package span

import (
	"fmt"
	"strings"
)

// Line describes one line of a text by byte offsets.
// End excludes the line terminator ("\n" or "\r\n"); Next is the offset of
// the following line, or len(text) for the last line.
type Line struct {
	Number int
	Start  int
	End    int
	Next   int
}

// Lines splits text into lines the way a line-oriented reader sees them: a
// trailing terminator does not produce an extra empty line.
func Lines(text string) []Line {
	var lines []Line
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		end := i
		if end > start && text[end-1] == '\r' {
			end--
		}
		lines = append(lines, Line{Number: len(lines) + 1, Start: start, End: end, Next: i + 1})
		start = i + 1
	}
	if start < len(text) {
		lines = append(lines, Line{Number: len(lines) + 1, Start: start, End: len(text), Next: len(text)})
	}
	return lines
}

// LineAt returns the 1-based number of the line holding offset.
func LineAt(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}

// LineEnding returns "\r\n" when text is predominantly CRLF and "\n"
// otherwise.
func LineEnding(text string) string {
	crlf := strings.Count(text, "\r\n")
	if crlf == 0 || crlf*2 < strings.Count(text, "\n") {
		return "\n"
	}
	return "\r\n"
}

// WithLineEnding rewrites the bare "\n" terminators of s to eol. Existing
// "\r\n" pairs are left alone.
func WithLineEnding(s, eol string) string {
	if eol != "\r\n" || !strings.Contains(s, "\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + strings.Count(s, "\n"))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' && (i == 0 || s[i-1] != '\r') {
			b.WriteByte('\r')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// lineStart returns the offset of the first byte of the line holding offset.
func lineStart(text string, offset int) int {
	return strings.LastIndexByte(text[:offset], '\n') + 1
}

// lineNext returns the offset just past the terminator of the line holding
// offset, or len(text) when that line is the last one.
func lineNext(text string, offset int) int {
	i := strings.IndexByte(text[offset:], '\n')
	if i < 0 {
		return len(text)
	}
	return offset + i + 1
}

// LineRange selects 1-based inclusive lines Start..End, terminators included.
// When Expect is set the first line of the range must contain it; this guards
// line numbers captured from an older revision of the file.
type LineRange struct {
	Start  int
	End    int
	Expect string
}

func (r LineRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("line %d", r.Start)
	}
	return fmt.Sprintf("lines %d-%d", r.Start, r.End)
}

// Locate implements Locator.
func (r LineRange) Locate(text string) (Span, error) {
	if r.Start < 1 || r.End < r.Start {
		return Span{}, fmt.Errorf("%s: invalid line range", r)
	}
	lines := Lines(text)
	if r.End > len(lines) {
		return Span{}, &NotFoundError{Locator: r.String(), Detail: fmt.Sprintf("file has %d lines", len(lines))}
	}
	first := lines[r.Start-1]
	if r.Expect != "" && !strings.Contains(text[first.Start:first.End], r.Expect) {
		return Span{}, &NotFoundError{Locator: r.String(), Detail: fmt.Sprintf("line %d does not contain %q", r.Start, r.Expect)}
	}
	return Span{Start: first.Start, End: lines[r.End-1].Next}, nil
}
