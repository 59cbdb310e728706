package recipe

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agentic-research/vaultpatch/internal/frontmatter"
	"github.com/agentic-research/vaultpatch/internal/journal"
)

// FrontMatter prepends a front matter block to every selected question note
// that lacks one. A failing note is counted and the batch moves on.
type FrontMatter struct {
	Info
	Batch frontmatter.Batch
}

func (r FrontMatter) Run(ctx context.Context, env *Env) (*Report, error) {
	tally := &frontmatter.Tally{}
	rep := &Report{Recipe: r.ID, Tally: tally}

	paths, err := r.Batch.Select(env.Vault)
	if err != nil {
		return rep, err
	}
	log := env.log()
	log.Debug("selected question notes", zap.Int("count", len(paths)), zap.String("root", r.Batch.Root))

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		fr := convertNote(env, p)
		switch fr.Status {
		case journal.StatusFailed:
			tally.Errored++
			log.Warn("convert failed", zap.String("path", p), zap.Error(fr.Err))
		case journal.StatusSkipped, journal.StatusUnchanged:
			tally.Skipped++
		default:
			tally.Converted++
		}
		rep.add(fr)
	}
	return rep, nil
}

func convertNote(env *Env, p string) FileReport {
	fr := FileReport{Path: p}
	raw, err := env.Vault.ReadFile(p)
	if err != nil {
		fr.fail(err)
		return fr
	}
	out, converted, err := frontmatter.Convert(string(raw))
	if err != nil {
		fr.fail(fmt.Errorf("%s: %w", p, err))
		return fr
	}
	if !converted {
		fr.Status = journal.StatusSkipped
		fr.Notes = append(fr.Notes, "already has front matter")
		return fr
	}
	q, err := frontmatter.Decode(out)
	if err != nil {
		fr.fail(fmt.Errorf("%s: rendered front matter does not decode: %w", p, err))
		return fr
	}
	fr.Notes = append(fr.Notes, fmt.Sprintf("hanzi %q, %d options", q.Hanzi, len(q.Options)))
	fr.settle(env.commit(p, raw, []byte(out), false))
	return fr
}
