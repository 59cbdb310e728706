package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentic-research/vaultpatch/internal/frontmatter"
	"github.com/agentic-research/vaultpatch/internal/journal"
	"github.com/agentic-research/vaultpatch/internal/recipe"
	"github.com/agentic-research/vaultpatch/internal/settings"
)

var (
	fmRoot    string
	fmFolders []string

	historyLimit int
	historyPath  string
)

var frontmatterCmd = &cobra.Command{
	Use:   "frontmatter",
	Short: "Add front matter to question notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b := frontmatter.DefaultBatch()
		b.Root = filepath.ToSlash(fmRoot)
		if len(fmFolders) > 0 {
			b.Folders = fmFolders
		}
		return runRecipes(cmd, recipe.FrontMatter{
			Info:  recipe.Info{ID: "question-frontmatter", About: "front matter for " + b.Root},
			Batch: b,
		})
	},
}

var queryCmd = &cobra.Command{
	Use:   "query <file> <jsonpath>",
	Short: "Evaluate a JSONPath expression against a vault JSON file",
	Example: `  vaultpatch query .obsidian/appearance.json '$.enabledCssSnippets[*]'
  vaultpatch query .obsidian/core-plugins.json '$[*]'`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault()
		if err != nil {
			return err
		}
		raw, err := v.ReadFile(filepath.ToSlash(args[0]))
		if err != nil {
			return err
		}
		results, err := settings.Query(raw, args[1])
		if err != nil {
			return err
		}
		for _, r := range results {
			b, err := settings.Marshal(r)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(b))
		}
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent journal entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := journalPath
		if path == "" {
			var err error
			if path, err = journal.DefaultPath(); err != nil {
				return err
			}
		}
		j, err := journal.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = j.Close() }()

		entries, err := j.Recent(cmd.Context(), historyLimit, filepath.ToSlash(historyPath))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range entries {
			fmt.Fprintf(out, "%s  %-9s  %-40s %s", e.At.Format(time.DateTime), e.Status, e.Recipe, e.Path)
			if e.BackupPath != "" {
				fmt.Fprintf(out, "  (backup %s)", e.BackupPath)
			}
			if e.Detail != "" {
				fmt.Fprintf(out, "  %s", e.Detail)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	frontmatterCmd.Flags().StringVar(&fmRoot, "root", frontmatter.DefaultRoot, "Folder holding one subfolder per question set")
	frontmatterCmd.Flags().StringSliceVar(&fmFolders, "folder", nil, "Question set folders to convert (default: all known sets)")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum entries to show")
	historyCmd.Flags().StringVar(&historyPath, "path", "", "Only entries for this vault-relative file")

	rootCmd.AddCommand(frontmatterCmd, queryCmd, historyCmd)
}
