package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/vaultpatch/api"
	"github.com/agentic-research/vaultpatch/internal/journal"
	"github.com/agentic-research/vaultpatch/internal/recipe"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in recipes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, rc := range recipe.Builtins().List() {
			fmt.Fprintf(out, "%-40s %s\n", rc.Name(), rc.Summary())
		}
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <recipe>...",
	Short: "Run built-in recipes against the vault",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := recipe.Builtins()
		recipes := make([]recipe.Recipe, 0, len(args))
		for _, name := range args {
			rc, err := reg.Get(name)
			if err != nil {
				return err
			}
			recipes = append(recipes, rc)
		}
		return runRecipes(cmd, recipes...)
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply <manifest.yaml>",
	Short: "Apply a patch manifest (YAML or JSON)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := api.LoadManifest(args[0])
		if err != nil {
			return err
		}
		rc, err := recipe.FromManifest(m)
		if err != nil {
			return err
		}
		return runRecipes(cmd, rc)
	},
}

func init() {
	rootCmd.AddCommand(listCmd, runCmd, applyCmd)
}

func runRecipes(cmd *cobra.Command, recipes ...recipe.Recipe) error {
	runner, closeJournal, err := newRunner()
	if err != nil {
		return err
	}
	defer closeJournal()

	reports, err := runner.Run(cmd.Context(), recipes...)
	for _, rep := range reports {
		printReport(cmd.OutOrStdout(), rep)
	}
	return err
}

func printReport(w io.Writer, rep *recipe.Report) {
	fmt.Fprintf(w, "== %s\n", rep.Recipe)
	for _, f := range rep.Files {
		line := fmt.Sprintf("%s: %s", f.Path, f.Status)
		if f.Result != nil && f.Result.Validated {
			line += ", syntax checked"
		}
		if f.Result != nil && f.Result.BackupPath != "" {
			line += " (backup " + f.Result.BackupPath + ")"
		}
		fmt.Fprintln(w, line)
		if f.Err != nil {
			fmt.Fprintf(w, "  error: %v\n", f.Err)
		}
		for _, o := range f.Outcomes {
			if o.Note != "" {
				fmt.Fprintf(w, "  - %s: %s\n", o.Step, o.Note)
			}
			for _, warn := range o.Warnings {
				fmt.Fprintf(w, "  ! %s\n", warn)
			}
		}
		for _, n := range f.Notes {
			fmt.Fprintf(w, "  - %s\n", n)
		}
		if f.Status == journal.StatusDryRun && f.Result != nil && f.Result.Diff != "" {
			fmt.Fprint(w, terminated(f.Result.Diff))
		}
	}
	if rep.Tally != nil {
		fmt.Fprintln(w, rep.Tally.String())
	}
}

func terminated(d string) string {
	if !strings.HasSuffix(d, "\n") {
		d += "\n"
	}
	return d
}
