package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/vaultpatch/api"
	"github.com/agentic-research/vaultpatch/internal/linter"
	"github.com/agentic-research/vaultpatch/internal/recipe"
	"github.com/agentic-research/vaultpatch/internal/writeback"
)

var confirmLines []int

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Audit or convert confirm() calls in a plugin bundle",
}

var confirmScanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "List confirm() calls (default: the quiz plugin bundle)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault()
		if err != nil {
			return err
		}
		path := bundleArg(args)
		content, err := v.ReadFile(path)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := writeback.Validate(content, path); err != nil {
			logger.Warn("bundle does not parse cleanly", zap.String("path", path), zap.Error(err))
			fmt.Fprintf(out, "! %v (listing may be incomplete)\n", err)
		}
		diags, err := linter.ConfirmCalls(content)
		if err != nil {
			return err
		}

		guards := 0
		for _, d := range diags {
			mark := " "
			if d.Guard {
				mark = "*"
				guards++
			}
			fmt.Fprintf(out, "%s %6d  %s\n", mark, d.Line+1, d.Snippet)
		}
		fmt.Fprintf(out, "%d confirm() calls in %s, %d convertible guards (*)\n", len(diags), path, guards)
		return nil
	},
}

var confirmConvertCmd = &cobra.Command{
	Use:   "convert [file]",
	Short: "Rewrite if (confirm(...)) { ... } guards as ConfirmModal callbacks",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := &api.Manifest{
			Name: "confirm-convert",
			Files: []api.File{{
				Path:  bundleArg(args),
				Steps: []api.Step{{Op: "confirm_modal", ConfirmLines: confirmLines}},
			}},
		}
		rc, err := recipe.FromManifest(m)
		if err != nil {
			return err
		}
		return runRecipes(cmd, rc)
	},
}

func init() {
	confirmConvertCmd.Flags().IntSliceVar(&confirmLines, "lines", nil, "Only convert guards on these 1-based lines")
	confirmCmd.AddCommand(confirmScanCmd, confirmConvertCmd)
	rootCmd.AddCommand(confirmCmd)
}

func bundleArg(args []string) string {
	if len(args) == 0 {
		return recipe.QuizBundle
	}
	return filepath.ToSlash(args[0])
}
