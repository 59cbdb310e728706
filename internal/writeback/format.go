package writeback

import (
	"github.com/agentic-research/vaultpatch/internal/span"
)

// MatchLineEndings rewrites bare "\n" in content to "\r\n" when original is
// predominantly CRLF. It is meant for files that are regenerated as a whole,
// such as re-encoded JSON settings; patch steps convert only the text they
// insert.
func MatchLineEndings(original, content []byte) []byte {
	return []byte(span.WithLineEnding(string(content), span.LineEnding(string(original))))
}
