// Package rewrite rebuilds captured blocks of plugin source.
package rewrite

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/agentic-research/vaultpatch/internal/span"
)

// ConfirmWindow bounds the number of lines a confirm() block may span.
const ConfirmWindow = span.DefaultWindow

var (
	confirmHead = regexp.MustCompile(`if\s*\(confirm\((.*?)\)\)`)
	awaitToken  = regexp.MustCompile(`\bawait\b`)
)

// ConfirmLocator finds `if (confirm(<msg>)) { ... }` blocks.
func ConfirmLocator() span.Balanced {
	return span.Balanced{Head: confirmHead, Window: ConfirmWindow, SkipQuoted: true}
}

// Conversion is one confirm() site. Err is set when the site was left as is.
type Conversion struct {
	Line    int
	Message string
	Err     error
}

// ConfirmToModal rewrites blocking confirm() guards into ConfirmModal
// callbacks:
//
//	if (confirm(msg)) {        new ConfirmModal(this.app, msg, (confirmed) => {
//	    body();          =>        if (confirmed) {
//	}                                  body();
//	                               }
//	                           }).open();
//
// A body that awaits gets an async callback. When lines is non-empty only
// heads on those 1-based lines are converted.
// Sites that cannot be delimited are reported and left untouched.
func ConfirmToModal(text string, lines []int) (string, []Conversion, error) {
	eol := span.LineEnding(text)

	type edit struct {
		sp   span.Span
		repl string
	}
	var (
		edits []edit
		convs []Conversion
	)
	for _, c := range ConfirmLocator().Blocks(text) {
		blk := c.Block
		if len(lines) > 0 && !slices.Contains(lines, blk.Line) {
			continue
		}
		conv := Conversion{Line: blk.Line}
		if len(blk.Groups) > 1 {
			conv.Message = blk.Groups[1]
		}
		if c.Err != nil {
			conv.Err = c.Err
			convs = append(convs, conv)
			continue
		}
		sp, repl, err := buildModal(text, blk, conv.Message, eol)
		if err != nil {
			conv.Err = err
			convs = append(convs, conv)
			continue
		}
		edits = append(edits, edit{sp: sp, repl: repl})
		convs = append(convs, conv)
	}

	for _, l := range lines {
		if !slices.ContainsFunc(convs, func(c Conversion) bool { return c.Line == l }) {
			convs = append(convs, Conversion{Line: l, Err: &span.NotFoundError{Locator: fmt.Sprintf("line %d", l), Detail: "no confirm() guard"}})
		}
	}

	slices.SortStableFunc(convs, func(a, b Conversion) int { return a.Line - b.Line })

	var b strings.Builder
	last := 0
	for _, e := range edits {
		b.WriteString(text[last:e.sp.Start])
		b.WriteString(e.repl)
		last = e.sp.End
	}
	b.WriteString(text[last:])
	return b.String(), convs, nil
}

// buildModal returns the whole-line span of blk and its replacement.
func buildModal(text string, blk span.Block, msg, eol string) (span.Span, string, error) {
	start := strings.LastIndexByte(text[:blk.Head.Start], '\n') + 1
	indent := text[start:blk.Head.Start]
	if strings.TrimLeft(indent, " \t") != "" {
		return span.Span{}, "", fmt.Errorf("line %d: code before confirm() guard", blk.Line)
	}

	end := len(text)
	if i := strings.IndexByte(text[blk.Closer:], '\n'); i >= 0 {
		end = blk.Closer + i
	}
	if strings.TrimSpace(text[blk.Closer+1:end]) != "" {
		return span.Span{}, "", fmt.Errorf("line %d: code after the guarded block", span.LineAt(text, blk.Closer))
	}
	if end > 0 && text[end-1] == '\r' {
		end--
	}

	inner := indent + "        "
	var body []string
	for i, line := range strings.Split(blk.Body(text), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			if i > 0 {
				body = append(body, "")
			}
			continue
		}
		if i == 0 {
			// code sharing the head line
			body = append(body, inner+strings.TrimSpace(line))
			continue
		}
		if strings.HasPrefix(line, indent) && !strings.HasPrefix(line, indent+"    ") {
			// code sharing the closer line
			body = append(body, inner+strings.TrimSpace(line))
			continue
		}
		body = append(body, "    "+line)
	}
	for len(body) > 0 && body[len(body)-1] == "" {
		body = body[:len(body)-1]
	}

	callback := "(confirmed) =>"
	if awaitToken.MatchString(blk.Body(text)) {
		callback = "async " + callback
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%snew ConfirmModal(this.app, %s, %s {%s", indent, msg, callback, eol)
	fmt.Fprintf(&b, "%s    if (confirmed) {%s", indent, eol)
	for _, line := range body {
		b.WriteString(line)
		b.WriteString(eol)
	}
	fmt.Fprintf(&b, "%s    }%s", indent, eol)
	fmt.Fprintf(&b, "%s}).open();", indent)
	return span.Span{Start: start, End: end}, b.String(), nil
}
