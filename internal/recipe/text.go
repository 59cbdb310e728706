package recipe

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agentic-research/vaultpatch/internal/patch"
)

// TextRecipe applies Steps to a single Target file.
type TextRecipe struct {
	Info
	Target string
	// Backup writes <Target>.bak before the change.
	Backup bool
	Steps  []patch.Step
}

func (r TextRecipe) Run(ctx context.Context, env *Env) (*Report, error) {
	rep := &Report{Recipe: r.ID}
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	fr := patchFile(env, r.Target, r.Backup, r.Steps)
	rep.add(fr)
	return rep, fr.Err
}

// patchFile runs the read, transform, commit sequence for one file.
func patchFile(env *Env, path string, backup bool, steps []patch.Step) FileReport {
	log := env.log().With(zap.String("path", path))
	fr := FileReport{Path: path}

	before, err := env.Vault.ReadFile(path)
	if err != nil {
		fr.fail(err)
		return fr
	}

	after, outcomes, err := patch.Apply(string(before), steps)
	fr.Outcomes = outcomes
	for _, o := range outcomes {
		log.Debug("step", zap.String("step", o.Step), zap.Bool("changed", o.Changed), zap.String("note", o.Note))
		for _, w := range o.Warnings {
			log.Warn("step warning", zap.String("step", o.Step), zap.String("warning", w))
		}
	}
	if err != nil {
		fr.fail(fmt.Errorf("%s: %w", path, err))
		return fr
	}

	fr.settle(env.commit(path, before, []byte(after), backup))
	return fr
}
