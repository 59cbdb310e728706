package recipe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agentic-research/vaultpatch/internal/journal"
)

// Runner runs recipes against one vault under the vault lock and records
// every file outcome in the journal.
type Runner struct {
	Env *Env
	// Journal may be nil.
	Journal     *journal.Journal
	LockTimeout time.Duration
}

// Run executes recipes in order. A failing recipe does not stop the ones
// after it; the returned error joins every failure.
func (r *Runner) Run(ctx context.Context, recipes ...Recipe) ([]*Report, error) {
	log := r.Env.log()
	unlock, err := r.Env.Vault.Lock(ctx, r.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn("release vault lock", zap.Error(err))
		}
	}()

	runID := journal.NewRunID()
	log.Debug("run started", zap.String("run", runID), zap.String("vault", r.vaultName()), zap.Bool("dry_run", r.Env.Options.DryRun))

	var reports []*Report
	var errs []error
	for _, rc := range recipes {
		start := time.Now()
		rep, err := rc.Run(ctx, r.Env)
		if rep == nil {
			rep = &Report{Recipe: rc.Name()}
		}
		reports = append(reports, rep)

		if jerr := r.record(ctx, runID, rep); jerr != nil {
			log.Warn("journal write failed", zap.String("recipe", rc.Name()), zap.Error(jerr))
		}
		log.Info("recipe finished",
			zap.String("recipe", rc.Name()),
			zap.Int("written", rep.Count(journal.StatusWritten)),
			zap.Int("failed", rep.Count(journal.StatusFailed)),
			zap.Duration("took", time.Since(start)))

		if err == nil {
			err = rep.Err()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", rc.Name(), err))
		}
		if ctx.Err() != nil {
			break
		}
	}
	return reports, errors.Join(errs...)
}

func (r *Runner) vaultName() string {
	if root := r.Env.Vault.Root(); root != "" {
		return root
	}
	return ":memory:"
}

func (r *Runner) record(ctx context.Context, runID string, rep *Report) error {
	if r.Journal == nil {
		return nil
	}
	var errs []error
	for _, f := range rep.Files {
		e := journal.Entry{
			RunID:  runID,
			Recipe: rep.Recipe,
			Vault:  r.vaultName(),
			Path:   f.Path,
			Status: f.Status,
		}
		if f.Result != nil {
			e.BeforeSHA = journal.Digest(f.Result.Before)
			e.AfterSHA = journal.Digest(f.Result.After)
			e.BeforeSize = len(f.Result.Before)
			e.AfterSize = len(f.Result.After)
			e.BackupPath = f.Result.BackupPath
		}
		if f.Err != nil {
			e.Detail = f.Err.Error()
		}
		if err := r.Journal.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
