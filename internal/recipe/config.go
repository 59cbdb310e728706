package recipe

import (
	"context"
	"fmt"
	"path"

	"github.com/agentic-research/vaultpatch/internal/journal"
	"github.com/agentic-research/vaultpatch/internal/settings"
	"github.com/agentic-research/vaultpatch/internal/vault"
	"github.com/agentic-research/vaultpatch/internal/writeback"
)

// Settings files under the vault config dir.
var (
	CorePluginsPath   = path.Join(vault.ConfigDir, "core-plugins.json")
	AppearancePath    = path.Join(vault.ConfigDir, "appearance.json")
	StyleSettingsPath = path.Join(vault.ConfigDir, "plugins", "obsidian-style-settings", "data.json")
)

// CorePlugins rewrites core-plugins.json from {id: bool} to the list of
// enabled ids.
type CorePlugins struct {
	Info
	Path string
}

func (r CorePlugins) Run(ctx context.Context, env *Env) (*Report, error) {
	p := r.Path
	if p == "" {
		p = CorePluginsPath
	}
	rep := &Report{Recipe: r.ID}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	fr := FileReport{Path: p}
	defer func() { rep.add(fr) }()

	raw, err := env.Vault.ReadFile(p)
	if err != nil {
		fr.fail(err)
		return rep, err
	}
	ids, converted, err := settings.EnabledPlugins(p, raw)
	if err != nil {
		fr.fail(err)
		return rep, err
	}
	if !converted {
		fr.Status = journal.StatusUnchanged
		fr.Notes = append(fr.Notes, fmt.Sprintf("already a list of %d plugins", len(ids)))
		return rep, nil
	}

	out, err := settings.Marshal(ids)
	if err != nil {
		fr.fail(err)
		return rep, err
	}
	fr.Notes = append(fr.Notes, fmt.Sprintf("%d enabled plugins", len(ids)))
	fr.settle(env.commit(p, raw, writeback.MatchLineEndings(raw, out), false))
	return rep, fr.Err
}

// Theme enables a CSS snippet with its fonts in appearance.json and seeds
// the Style Settings plugin with defaults when that plugin has data.
type Theme struct {
	Info
	Appearance settings.Appearance
	// StyleDefaults are added to the Style Settings data only where absent.
	StyleDefaults []settings.Pair
}

func (r Theme) Run(ctx context.Context, env *Env) (*Report, error) {
	rep := &Report{Recipe: r.ID}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	rep.add(r.appearance(env))
	rep.add(r.styleSettings(env))
	return rep, rep.Err()
}

func (r Theme) appearance(env *Env) FileReport {
	fr := FileReport{Path: AppearancePath}

	var raw []byte
	obj := settings.NewObject()
	if env.Vault.Exists(AppearancePath) {
		var err error
		if raw, err = env.Vault.ReadFile(AppearancePath); err != nil {
			fr.fail(err)
			return fr
		}
		if obj, err = settings.ParseObject(AppearancePath, raw); err != nil {
			fr.fail(err)
			return fr
		}
	}

	fr.Notes = settings.ApplyAppearance(obj, r.Appearance)
	out, err := settings.Marshal(obj)
	if err != nil {
		fr.fail(err)
		return fr
	}
	if raw != nil && len(fr.Notes) == 0 {
		fr.Status = journal.StatusUnchanged
		return fr
	}
	fr.settle(env.commit(AppearancePath, raw, writeback.MatchLineEndings(raw, out), false))
	return fr
}

func (r Theme) styleSettings(env *Env) FileReport {
	fr := FileReport{Path: StyleSettingsPath}
	if len(r.StyleDefaults) == 0 || !env.Vault.Exists(StyleSettingsPath) {
		fr.Status = journal.StatusSkipped
		fr.Notes = append(fr.Notes, "no Style Settings data yet")
		return fr
	}

	raw, err := env.Vault.ReadFile(StyleSettingsPath)
	if err != nil {
		fr.fail(err)
		return fr
	}
	obj, err := settings.ParseObject(StyleSettingsPath, raw)
	if err != nil {
		fr.fail(err)
		return fr
	}
	added := settings.UpsertMissing(obj, r.StyleDefaults)
	if len(added) == 0 {
		fr.Status = journal.StatusUnchanged
		return fr
	}
	for _, k := range added {
		fr.Notes = append(fr.Notes, "added "+k)
	}
	out, err := settings.Marshal(obj)
	if err != nil {
		fr.fail(err)
		return fr
	}
	fr.settle(env.commit(StyleSettingsPath, raw, writeback.MatchLineEndings(raw, out), false))
	return fr
}
