package writeback

import (
	"bytes"
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/agentic-research/vaultpatch/internal/diff"
)

// Options controls Commit.
type Options struct {
	DryRun   bool
	Backup   bool
	Validate bool
	Context  int // diff context lines; zero selects diff.DefaultContext
}

// Result describes what Commit did with one file.
type Result struct {
	Path       string
	Changed    bool
	Validated  bool
	Written    bool
	BackupPath string
	Diff       string
	Before     []byte
	After      []byte
}

// Commit writes after over path, which currently holds before (nil for a new
// file). The bytes of after are written as given. The pipeline is: skip when
// unchanged, refuse syntax regressions, render the diff, stop on dry run, back
// up, write atomically.
func Commit(fsys billy.Filesystem, path string, before, after []byte, opts Options) (*Result, error) {
	res := &Result{Path: path, Before: before, After: after}
	if bytes.Equal(before, after) {
		return res, nil
	}
	res.Changed = true

	if opts.Validate && Supported(path) {
		res.Validated = true
		if err := Regression(before, after, path); err != nil {
			return res, fmt.Errorf("refusing to write %s: %w", path, err)
		}
	}

	if opts.DryRun {
		ctx := opts.Context
		if ctx <= 0 {
			ctx = diff.DefaultContext
		}
		res.Diff = diff.Unified(path, string(before), string(after), ctx)
		return res, nil
	}

	if opts.Backup && before != nil {
		bak, err := Backup(fsys, path, before)
		if err != nil {
			return res, err
		}
		res.BackupPath = bak
	}

	if err := WriteFile(fsys, path, after); err != nil {
		return res, err
	}
	res.Written = true
	return res, nil
}
