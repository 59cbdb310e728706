package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/vaultpatch/internal/journal"
	"github.com/agentic-research/vaultpatch/internal/logging"
	"github.com/agentic-research/vaultpatch/internal/recipe"
	"github.com/agentic-research/vaultpatch/internal/vault"
	"github.com/agentic-research/vaultpatch/internal/writeback"
)

var (
	vaultDir    string
	dryRun      bool
	noValidate  bool
	backup      bool
	verbose     bool
	journalPath string
	noJournal   bool
	lockTimeout time.Duration

	logger = zap.NewNop()
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&vaultDir, "vault", "", "Vault root (default: current directory)")
	pf.BoolVarP(&dryRun, "dry-run", "n", false, "Print a unified diff instead of writing")
	pf.BoolVar(&noValidate, "no-validate", false, "Skip the syntax regression check before writing")
	pf.BoolVar(&backup, "backup", false, "Write <file>.bak before every change")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	pf.StringVar(&journalPath, "journal", "", "Journal database (default: ~/.agentic-research/vaultpatch/journal.db)")
	pf.BoolVar(&noJournal, "no-journal", false, "Do not record changes in the journal")
	pf.DurationVar(&lockTimeout, "lock-timeout", 10*time.Second, "How long to wait for another run to release the vault")
}

var rootCmd = &cobra.Command{
	Use:   "vaultpatch",
	Short: "Repeatable patches for an Obsidian vault: plugin bundles, settings and notes",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logging.New(verbose)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openVault() (*vault.Vault, error) {
	dir := vaultDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working dir: %w", err)
		}
		dir = wd
	}
	return vault.Open(dir)
}

// newRunner opens the vault and, unless disabled, the journal. The returned
// func closes the journal.
func newRunner() (*recipe.Runner, func(), error) {
	v, err := openVault()
	if err != nil {
		return nil, nil, err
	}
	r := &recipe.Runner{
		Env: &recipe.Env{
			Vault: v,
			Log:   logger,
			Options: writeback.Options{
				DryRun:   dryRun,
				Backup:   backup,
				Validate: !noValidate,
			},
		},
		LockTimeout: lockTimeout,
	}

	closeJournal := func() {}
	if noJournal {
		return r, closeJournal, nil
	}
	path := journalPath
	if path == "" {
		if path, err = journal.DefaultPath(); err != nil {
			return nil, nil, err
		}
	}
	j, err := journal.Open(path)
	if err != nil {
		// a broken journal must not block patching
		logger.Warn("journal unavailable", zap.String("path", path), zap.Error(err))
		return r, closeJournal, nil
	}
	r.Journal = j
	return r, func() { _ = j.Close() }, nil
}
