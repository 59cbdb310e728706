// Package recipe turns vault edits into named, repeatable units. A recipe
// reads its targets from a vault, transforms them in memory and hands each
// result to writeback.Commit; the Runner adds locking and the journal.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/agentic-research/vaultpatch/internal/frontmatter"
	"github.com/agentic-research/vaultpatch/internal/journal"
	"github.com/agentic-research/vaultpatch/internal/patch"
	"github.com/agentic-research/vaultpatch/internal/vault"
	"github.com/agentic-research/vaultpatch/internal/writeback"
)

// Recipe is one named vault edit.
type Recipe interface {
	Name() string
	Summary() string
	Run(ctx context.Context, env *Env) (*Report, error)
}

// Info carries a recipe's name and summary.
type Info struct {
	ID    string
	About string
}

func (i Info) Name() string    { return i.ID }
func (i Info) Summary() string { return i.About }

// Env is what a recipe runs against.
type Env struct {
	Vault   *vault.Vault
	Options writeback.Options
	Log     *zap.Logger
}

func (e *Env) log() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// commit writes after over path with the run options. backup forces a .bak
// copy even when the run did not ask for one.
func (e *Env) commit(path string, before, after []byte, backup bool) (*writeback.Result, error) {
	opts := e.Options
	opts.Backup = opts.Backup || backup
	return writeback.Commit(e.Vault.FS(), path, before, after, opts)
}

// FileReport is the outcome for one file.
type FileReport struct {
	Path     string
	Status   string
	Outcomes []patch.Outcome
	Notes    []string
	Result   *writeback.Result
	Err      error
}

// settle derives Status from a commit result.
func (f *FileReport) settle(res *writeback.Result, err error) {
	f.Result = res
	switch {
	case err != nil:
		f.fail(err)
	case res == nil || !res.Changed:
		f.Status = journal.StatusUnchanged
	case res.Written:
		f.Status = journal.StatusWritten
	default:
		f.Status = journal.StatusDryRun
	}
}

func (f *FileReport) fail(err error) {
	f.Status = journal.StatusFailed
	f.Err = err
}

// Warnings collects the step warnings of the file.
func (f *FileReport) Warnings() []string {
	var out []string
	for _, o := range f.Outcomes {
		out = append(out, o.Warnings...)
	}
	return out
}

// Report is the outcome of one recipe run.
type Report struct {
	Recipe string
	Files  []FileReport
	// Tally is set by batch recipes.
	Tally *frontmatter.Tally
}

func (r *Report) add(f FileReport) { r.Files = append(r.Files, f) }

// Err joins the per-file errors, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, f := range r.Files {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errors.Join(errs...)
}

// Count returns how many files ended with status.
func (r *Report) Count(status string) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// Registry maps names to recipes.
type Registry struct {
	byName map[string]Recipe
}

// NewRegistry returns a registry holding recipes. Duplicate names panic.
func NewRegistry(recipes ...Recipe) *Registry {
	r := &Registry{byName: make(map[string]Recipe, len(recipes))}
	for _, rc := range recipes {
		r.Register(rc)
	}
	return r
}

// Register adds rc. A duplicate name panics.
func (r *Registry) Register(rc Recipe) {
	if _, dup := r.byName[rc.Name()]; dup {
		panic(fmt.Sprintf("recipe %s registered twice", rc.Name()))
	}
	r.byName[rc.Name()] = rc
}

// Get looks a recipe up by name.
func (r *Registry) Get(name string) (Recipe, error) {
	rc, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown recipe %q (see `vaultpatch list`)", name)
	}
	return rc, nil
}

// List returns all recipes sorted by name.
func (r *Registry) List() []Recipe {
	out := make([]Recipe, 0, len(r.byName))
	for _, rc := range r.byName {
		out = append(out, rc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
