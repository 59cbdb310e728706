// Package span locates a single contiguous region of file text.
//
// Locators never touch the filesystem. They take the full text of a file and
// return the byte range to change, or a typed error when the anchor the patch
// relies on is missing or malformed.
package span

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched by every NotFoundError through errors.Is.
var ErrNotFound = errors.New("span not found")

// ErrUnbalanced is matched by every UnbalancedSpanError through errors.Is.
var ErrUnbalanced = errors.New("unbalanced span")

// Span is a half-open byte range [Start, End) into a text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Locator finds exactly one span in a text.
type Locator interface {
	Locate(text string) (Span, error)
	String() string
}

// NotFoundError reports that an expected marker, pattern or line is missing.
type NotFoundError struct {
	Locator string
	Detail  string
}

func (e *NotFoundError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: not found", e.Locator)
	}
	return fmt.Sprintf("%s: not found: %s", e.Locator, e.Detail)
}

// Is lets callers test with errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// UnbalancedSpanError reports that delimiter depth never returned to zero
// inside the scan window that starts on Line (1-based).
type UnbalancedSpanError struct {
	Locator string
	Line    int
	Depth   int
	Window  int
}

func (e *UnbalancedSpanError) Error() string {
	return fmt.Sprintf("%s: unbalanced block at line %d (depth %d after %d lines)", e.Locator, e.Line, e.Depth, e.Window)
}

// Is lets callers test with errors.Is(err, ErrUnbalanced).
func (e *UnbalancedSpanError) Is(target error) bool { return target == ErrUnbalanced }

// Replace substitutes the span found by loc with repl. On error the original
// text is returned unchanged.
func Replace(text string, loc Locator, repl string) (string, Span, error) {
	sp, err := loc.Locate(text)
	if err != nil {
		return text, Span{}, err
	}
	if sp.Start < 0 || sp.End > len(text) || sp.Start > sp.End {
		return text, Span{}, fmt.Errorf("%s: invalid span [%d:%d] for text of length %d", loc, sp.Start, sp.End, len(text))
	}
	return text[:sp.Start] + repl + text[sp.End:], sp, nil
}
