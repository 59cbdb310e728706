package frontmatter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/agentic-research/vaultpatch/internal/vault"
)

// DefaultRoot holds one subfolder per question set.
const DefaultRoot = "HanziQuiz/Questions"

// DefaultFolders are the question sets converted when none are named.
var DefaultFolders = []string{"기본", "한자", "어휘", "문법", "N1", "N3", "156", "1번방"}

// Batch selects question notes: <Root>/<folder>/*.md whose name contains
// Include and none of Exclude.
type Batch struct {
	Root    string
	Folders []string
	Include string
	Exclude []string
}

// DefaultBatch returns the selection used by the question converter.
func DefaultBatch() Batch {
	return Batch{
		Root:    DefaultRoot,
		Folders: DefaultFolders,
		Include: "_",
		Exclude: []string{"문제목록", "대시보드"},
	}
}

// Select returns matching vault-relative paths.
func (b Batch) Select(v *vault.Vault) ([]string, error) {
	if !v.Exists(b.Root) {
		return nil, fmt.Errorf("question root %s: not found", b.Root)
	}
	patterns := make([]string, 0, len(b.Folders))
	for _, f := range b.Folders {
		patterns = append(patterns, f+"/*.md")
	}
	if len(patterns) == 0 {
		patterns = append(patterns, "*/*.md")
	}

	paths, err := v.Glob(b.Root, patterns...)
	if err != nil {
		return nil, err
	}
	out := paths[:0]
	for _, p := range paths {
		if b.wants(filepath.Base(p)) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (b Batch) wants(name string) bool {
	if b.Include != "" && !strings.Contains(name, b.Include) {
		return false
	}
	for _, ex := range b.Exclude {
		if strings.Contains(name, ex) {
			return false
		}
	}
	return true
}

// Tally counts batch outcomes.
type Tally struct {
	Converted int
	Skipped   int
	Errored   int
}

func (t Tally) Total() int { return t.Converted + t.Skipped + t.Errored }

func (t Tally) String() string {
	return fmt.Sprintf("converted %d, skipped %d, errors %d", t.Converted, t.Skipped, t.Errored)
}
