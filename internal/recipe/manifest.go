package recipe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/agentic-research/vaultpatch/api"
	"github.com/agentic-research/vaultpatch/internal/patch"
	"github.com/agentic-research/vaultpatch/internal/span"
)

// ManifestRecipe is a compiled manifest: one step list per file. Files are
// patched in order; a failed file does not stop the next.
type ManifestRecipe struct {
	Info
	Files []TextRecipe
}

func (r ManifestRecipe) Run(ctx context.Context, env *Env) (*Report, error) {
	rep := &Report{Recipe: r.ID}
	for _, f := range r.Files {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		rep.add(patchFile(env, f.Target, f.Backup, f.Steps))
	}
	return rep, rep.Err()
}

// FromManifest compiles m. Patterns are compiled and replacement files read
// here, so a broken manifest fails before any file is touched.
func FromManifest(m *api.Manifest) (ManifestRecipe, error) {
	r := ManifestRecipe{Info: Info{ID: m.Name, About: m.Summary}}
	var errs []error
	for i, f := range m.Files {
		tr := TextRecipe{Info: r.Info, Target: filepath.ToSlash(f.Path), Backup: f.Backup}
		for j, s := range f.Steps {
			step, err := compileStep(s, m.Dir)
			if err != nil {
				errs = append(errs, fmt.Errorf("files[%d].steps[%d]: %w", i, j, err))
				continue
			}
			tr.Steps = append(tr.Steps, step)
		}
		r.Files = append(r.Files, tr)
	}
	if err := errors.Join(errs...); err != nil {
		return ManifestRecipe{}, fmt.Errorf("compile manifest %s: %w", m.Name, err)
	}
	return r, nil
}

func compileStep(s api.Step, dir string) (patch.Step, error) {
	text, err := stepText(s, dir)
	if err != nil {
		return nil, err
	}

	switch s.Op {
	case "splice", "delete":
		loc, err := compileLocator(s)
		if err != nil {
			return nil, err
		}
		if s.Op == "delete" {
			return patch.Delete{Locator: loc, Note: s.Note}, nil
		}
		return patch.Splice{Locator: loc, Replacement: text, Note: s.Note}, nil
	case "literal":
		return patch.Literal{Old: s.Old, New: s.New, All: s.All, Optional: s.Optional, Note: s.Note}, nil
	case "regex":
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, err
		}
		return patch.Regex{Re: re, Repl: text, Limit: s.Limit, Optional: s.Optional, Note: s.Note}, nil
	case "insert_before", "insert_after":
		a, err := compileAnchor(*s.Anchor)
		if err != nil {
			return nil, err
		}
		if s.Op == "insert_after" {
			return patch.InsertAfter{Anchor: a, Text: text, Unless: s.Unless, Note: s.Note}, nil
		}
		return patch.InsertBefore{Anchor: a, Text: text, Unless: s.Unless, AppendIfMissing: s.AppendIfMissing, Note: s.Note}, nil
	case "confirm_modal":
		return patch.ConfirmModal{Lines: s.ConfirmLines, Optional: s.Optional}, nil
	}
	return nil, fmt.Errorf("unknown op %q", s.Op)
}

// stepText picks the inserted text: Text for inserts, Replacement otherwise,
// or the contents of ReplacementFile relative to dir.
func stepText(s api.Step, dir string) (string, error) {
	if s.ReplacementFile != "" {
		p := s.ReplacementFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return "", fmt.Errorf("replacement file: %w", err)
		}
		return string(b), nil
	}
	if s.Op == "insert_before" || s.Op == "insert_after" {
		return s.Text, nil
	}
	return s.Replacement, nil
}

func compileLocator(s api.Step) (span.Locator, error) {
	switch {
	case s.Lines != nil:
		return span.LineRange{Start: s.Lines.Start, End: s.Lines.End, Expect: s.Lines.Expect}, nil
	case s.Markers != nil:
		start, err := compileAnchor(s.Markers.Start)
		if err != nil {
			return nil, fmt.Errorf("start marker: %w", err)
		}
		end, err := compileAnchor(s.Markers.End)
		if err != nil {
			return nil, fmt.Errorf("end marker: %w", err)
		}
		return span.Markers{
			Start:        start,
			End:          end,
			IncludeStart: s.Markers.IncludeStart,
			IncludeEnd:   s.Markers.IncludeEnd,
			WholeLines:   s.Markers.WholeLines,
		}, nil
	case s.Match != nil:
		re, err := regexp.Compile(s.Match.Pattern)
		if err != nil {
			return nil, err
		}
		if s.Match.Group > re.NumSubexp() {
			return nil, fmt.Errorf("pattern %q has no group %d", s.Match.Pattern, s.Match.Group)
		}
		return span.Match{Re: re, Group: s.Match.Group}, nil
	case s.Balanced != nil:
		re, err := regexp.Compile(s.Balanced.Head)
		if err != nil {
			return nil, fmt.Errorf("balanced head: %w", err)
		}
		b := span.Balanced{Head: re, Window: s.Balanced.Window, SkipQuoted: s.Balanced.SkipQuoted}
		if s.Balanced.Open != "" {
			b.Open = s.Balanced.Open[0]
		}
		if s.Balanced.Close != "" {
			b.Close = s.Balanced.Close[0]
		}
		return b, nil
	}
	return nil, errors.New("no locator")
}

func compileAnchor(a api.Anchor) (span.Anchor, error) {
	base, err := baseAnchor(a)
	if err != nil || a.Nth <= 1 {
		return base, err
	}
	return span.Nth(base, a.Nth), nil
}

func baseAnchor(a api.Anchor) (span.Anchor, error) {
	switch {
	case a.Text != "" && a.Pattern != "":
		return nil, errors.New("anchor sets both text and pattern")
	case a.Text != "":
		return span.Text(a.Text), nil
	case a.Pattern != "":
		re, err := regexp.Compile(a.Pattern)
		if err != nil {
			return nil, err
		}
		return span.Pattern(re), nil
	}
	return nil, errors.New("empty anchor")
}
