package span

import (
	"fmt"
	"regexp"
)

// DefaultWindow is the number of lines a Balanced scan may cover, head line
// included.
const DefaultWindow = 50

// Balanced locates a block introduced by a head pattern and delimited by
// Open/Close. The scan starts at the first Open on the head line at or after
// the head match and ends at the Close that brings the depth back to zero.
//
// With SkipQuoted, delimiters inside string literals, template literals and
// comments are ignored.
type Balanced struct {
	Head       *regexp.Regexp
	Open       byte
	Close      byte
	Window     int
	SkipQuoted bool
}

// Block is one head match together with its balanced body.
type Block struct {
	Head   Span
	Opener int
	Closer int
	Line   int
	Groups []string
}

// Span covers the head through the closing delimiter.
func (b Block) Span() Span { return Span{Start: b.Head.Start, End: b.Closer + 1} }

// Body returns the text strictly between the delimiters.
func (b Block) Body(text string) string { return text[b.Opener+1 : b.Closer] }

// Candidate is the result of scanning one head match: either a Block or the
// reason the block could not be delimited.
type Candidate struct {
	Block Block
	Err   error
}

func (b Balanced) String() string {
	return fmt.Sprintf("balanced /%s/", b.Head)
}

func (b Balanced) delims() (byte, byte) {
	open, closer := b.Open, b.Close
	if open == 0 {
		open = '{'
	}
	if closer == 0 {
		closer = '}'
	}
	return open, closer
}

func (b Balanced) window() int {
	if b.Window <= 0 {
		return DefaultWindow
	}
	return b.Window
}

// Locate implements Locator using the first head match.
func (b Balanced) Locate(text string) (Span, error) {
	blk, err := b.Block(text, 0)
	if err != nil {
		return Span{}, err
	}
	return blk.Span(), nil
}

// Block scans the first head match at or after offset from.
func (b Balanced) Block(text string, from int) (Block, error) {
	if from > len(text) {
		return Block{}, &NotFoundError{Locator: b.String()}
	}
	loc := b.Head.FindStringSubmatchIndex(text[from:])
	if loc == nil {
		return Block{}, &NotFoundError{Locator: b.String()}
	}
	for i := range loc {
		if loc[i] >= 0 {
			loc[i] += from
		}
	}
	return b.scan(text, loc)
}

// Blocks scans every non-overlapping head match in order. A head whose block
// cannot be delimited is reported with its error and the search resumes after
// the head match.
func (b Balanced) Blocks(text string) []Candidate {
	var out []Candidate
	from := 0
	for from <= len(text) {
		loc := b.Head.FindStringSubmatchIndex(text[from:])
		if loc == nil {
			break
		}
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += from
			}
		}
		blk, err := b.scan(text, loc)
		out = append(out, Candidate{Block: blk, Err: err})
		next := loc[1]
		if err == nil {
			next = blk.Closer + 1
		}
		if next <= from {
			next = from + 1
		}
		from = next
	}
	return out
}

func (b Balanced) scan(text string, loc []int) (Block, error) {
	open, closer := b.delims()
	blk := Block{
		Head: Span{Start: loc[0], End: loc[1]},
		Line: LineAt(text, loc[0]),
	}
	for g := 0; 2*g+1 < len(loc); g++ {
		if loc[2*g] < 0 {
			blk.Groups = append(blk.Groups, "")
			continue
		}
		blk.Groups = append(blk.Groups, text[loc[2*g]:loc[2*g+1]])
	}

	headEnd := lineNext(text, lastByte(loc[0], loc[1]))
	sc := scanner{text: text, skip: b.SkipQuoted}
	opener := -1
	for sc.pos = loc[0]; sc.pos < headEnd; sc.pos++ {
		if sc.literal() {
			continue
		}
		if text[sc.pos] == open {
			opener = sc.pos
			break
		}
	}
	if opener < 0 {
		return blk, &NotFoundError{Locator: b.String(), Detail: fmt.Sprintf("no %q on line %d", open, blk.Line)}
	}
	blk.Opener = opener

	window := b.window()
	lastLine := blk.Line + window - 1
	line := LineAt(text, opener)
	depth := 0
	for sc.pos = opener; sc.pos < len(text); sc.pos++ {
		c := text[sc.pos]
		if c == '\n' {
			line++
			if line > lastLine {
				break
			}
		}
		if sc.literal() || c == '\n' {
			continue
		}
		switch c {
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				blk.Closer = sc.pos
				return blk, nil
			}
		}
	}
	return blk, &UnbalancedSpanError{Locator: b.String(), Line: blk.Line, Depth: depth, Window: window}
}

// scanner tracks whether the byte at pos sits inside a JavaScript-style
// literal or comment. literal must be called for every byte in order.
type scanner struct {
	text  string
	pos   int
	skip  bool
	quote byte // ', ", ` or 0
	block bool // inside /* */
	line  bool // inside //
	eat   bool // byte belongs to the previous token (escape, comment delimiter)
}

// literal reports whether text[pos] is part of a string or comment.
func (s *scanner) literal() bool {
	if !s.skip {
		return false
	}
	if s.eat {
		s.eat = false
		return true
	}
	c := s.text[s.pos]
	switch {
	case s.line:
		if c == '\n' {
			s.line = false
			return false
		}
		return true
	case s.block:
		if c == '*' && s.peek() == '/' {
			s.block = false
			s.eat = true
		}
		return true
	case s.quote != 0:
		switch c {
		case '\\':
			s.eat = true
		case s.quote:
			s.quote = 0
		}
		return true
	}
	switch c {
	case '\'', '"', '`':
		s.quote = c
		return true
	case '/':
		switch s.peek() {
		case '/':
			s.line = true
			return true
		case '*':
			s.block = true
			s.eat = true
			return true
		}
	}
	return false
}

func (s *scanner) peek() byte {
	if s.pos+1 < len(s.text) {
		return s.text[s.pos+1]
	}
	return 0
}
