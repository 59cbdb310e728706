package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentic-research/vaultpatch/api"
	"github.com/agentic-research/vaultpatch/internal/recipe"
)

var splice struct {
	lines        string
	expect       string
	start, end   string
	startRe      string
	endRe        string
	pattern      string
	group        int
	block        string
	window       int
	includeStart bool
	includeEnd   bool
	wholeLines   bool
	with         string
	withFile     string
	del          bool
}

var spliceCmd = &cobra.Command{
	Use:   "splice <file>",
	Short: "Replace or delete one span of a vault file",
	Long: `Locate one span of <file> (vault-relative) and replace it with --with or
--with-file, or remove it with --delete. The span is chosen by exactly one of:

  --lines 10-20 [--expect text]        1-based inclusive line range
  --start A --end B                    literal markers (or --start-re/--end-re)
  --pattern RE [--group N]             first regex match or one of its groups
  --block RE [--window N]              brace-balanced block opened on the RE line`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := spliceStep()
		if err != nil {
			return err
		}
		m := &api.Manifest{
			Name:  "splice",
			Files: []api.File{{Path: filepath.ToSlash(args[0]), Steps: []api.Step{step}}},
		}
		if err := m.Validate(); err != nil {
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
	f := spliceCmd.Flags()
	f.StringVar(&splice.lines, "lines", "", "Line range, e.g. 2778-2804 or 12")
	f.StringVar(&splice.expect, "expect", "", "Text the first line of --lines must contain")
	f.StringVar(&splice.start, "start", "", "Literal start marker")
	f.StringVar(&splice.end, "end", "", "Literal end marker, searched after the start marker")
	f.StringVar(&splice.startRe, "start-re", "", "Start marker as a regular expression")
	f.StringVar(&splice.endRe, "end-re", "", "End marker as a regular expression")
	f.StringVar(&splice.pattern, "pattern", "", "Regular expression locating the span")
	f.IntVar(&splice.group, "group", 0, "Capture group of --pattern to replace")
	f.StringVar(&splice.block, "block", "", "Regular expression for the line opening a {...} block")
	f.IntVar(&splice.window, "window", 0, "Lines a --block scan may cover (default 50)")
	f.BoolVar(&splice.includeStart, "include-start", false, "Replace the start marker too")
	f.BoolVar(&splice.includeEnd, "include-end", false, "Replace the end marker too")
	f.BoolVar(&splice.wholeLines, "whole-lines", false, "Widen marker spans to whole lines")
	f.StringVar(&splice.with, "with", "", "Replacement text")
	f.StringVar(&splice.withFile, "with-file", "", "File holding the replacement text")
	f.BoolVar(&splice.del, "delete", false, "Remove the span")
	rootCmd.AddCommand(spliceCmd)
}

func spliceStep() (api.Step, error) {
	s := api.Step{Op: "splice", Replacement: splice.with}
	if splice.del {
		if splice.with != "" || splice.withFile != "" {
			return s, fmt.Errorf("--delete cannot be combined with --with or --with-file")
		}
		s.Op = "delete"
	}
	if splice.withFile != "" {
		abs, err := filepath.Abs(splice.withFile)
		if err != nil {
			return s, err
		}
		s.ReplacementFile = abs
	}

	if splice.lines != "" {
		lr, err := parseLineRange(splice.lines)
		if err != nil {
			return s, err
		}
		lr.Expect = splice.expect
		s.Lines = &lr
	}
	if splice.start != "" || splice.startRe != "" || splice.end != "" || splice.endRe != "" {
		s.Markers = &api.Markers{
			Start:        api.Anchor{Text: splice.start, Pattern: splice.startRe},
			End:          api.Anchor{Text: splice.end, Pattern: splice.endRe},
			IncludeStart: splice.includeStart,
			IncludeEnd:   splice.includeEnd,
			WholeLines:   splice.wholeLines,
		}
	}
	if splice.pattern != "" {
		s.Match = &api.Match{Pattern: splice.pattern, Group: splice.group}
	}
	if splice.block != "" {
		s.Balanced = &api.Balanced{Head: splice.block, Window: splice.window, SkipQuoted: true}
	}
	return s, nil
}

func parseLineRange(v string) (api.LineRange, error) {
	a, b, found := strings.Cut(v, "-")
	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return api.LineRange{}, fmt.Errorf("invalid line range %q", v)
	}
	end := start
	if found {
		if end, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
			return api.LineRange{}, fmt.Errorf("invalid line range %q", v)
		}
	}
	return api.LineRange{Start: start, End: end}, nil
}
