package tests

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentic-research/vaultpatch/api"
	"github.com/agentic-research/vaultpatch/internal/journal"
	"github.com/agentic-research/vaultpatch/internal/linter"
	"github.com/agentic-research/vaultpatch/internal/recipe"
	"github.com/agentic-research/vaultpatch/internal/vault"
	"github.com/agentic-research/vaultpatch/internal/writeback"
)

// testFixture bundles the shared state for integration tests: an on-disk
// vault holding a small quiz bundle, and a journal next to it.
type testFixture struct {
	root    string
	vault   *vault.Vault
	journal *journal.Journal
	runner  *recipe.Runner
}

const quizSource = `const { Plugin, Modal } = require('obsidian');

class QuizView {
    render(el, nextBtn, question) {
        const isMobile = this.app.isMobile || window.innerWidth <= 768;
        const swipeThreshold = 50;
        el.style.cssText = ` + "`font-size: ${isMobile ? '14px' : '1em'}; overflow-y: auto;`" + `;
        nextBtn.style.fontWeight = 'bold';
        nextBtn.addEventListener('click', () => {
            this.next();
        });
    }

    reset(stats) {
        if (confirm('통계를 초기화할까요?')) {
            stats.clear();
            this.save();
        }
    }
}

class QuizPlugin extends Plugin {
    async onload() {
        console.log('quiz loaded');
    }
}

module.exports = QuizPlugin;
`

func setup(t *testing.T) *testFixture {
	t.Helper()

	root := t.TempDir()
	bundle := filepath.Join(root, filepath.FromSlash(recipe.QuizBundle))
	require.NoError(t, os.MkdirAll(filepath.Dir(bundle), 0o755))
	require.NoError(t, os.WriteFile(bundle, []byte(quizSource), 0o644))

	v, err := vault.Open(root)
	require.NoError(t, err)
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return &testFixture{
		root:    root,
		vault:   v,
		journal: j,
		runner: &recipe.Runner{
			Env:         &recipe.Env{Vault: v, Options: writeback.Options{Validate: true}},
			Journal:     j,
			LockTimeout: time.Second,
		},
	}
}

func (f *testFixture) bundle(t *testing.T) string {
	t.Helper()
	b, err := f.vault.ReadFile(recipe.QuizBundle)
	require.NoError(t, err)
	return string(b)
}

func builtins(t *testing.T, names ...string) []recipe.Recipe {
	t.Helper()
	reg := recipe.Builtins()
	var out []recipe.Recipe
	for _, n := range names {
		rc, err := reg.Get(n)
		require.NoError(t, err)
		out = append(out, rc)
	}
	return out
}

func TestIntegration_QuizRecipesInSequence(t *testing.T) {
	f := setup(t)
	recipes := builtins(t, "quiz-mobile-touch", "quiz-galaxy-ultra", "quiz-spen", "quiz-confirm-modal")

	reports, err := f.runner.Run(context.Background(), recipes...)
	require.NoError(t, err)
	require.Len(t, reports, 4)
	for _, rep := range reports {
		assert.Equal(t, journal.StatusWritten, rep.Files[0].Status, rep.Recipe)
	}

	got := f.bundle(t)
	assert.Contains(t, got, "nextBtn.style.touchAction = 'manipulation';")
	assert.Contains(t, got, "window.innerWidth <= 1024")
	assert.Contains(t, got, "'16px'")
	assert.Contains(t, got, "overflow-y: auto; -webkit-overflow-scrolling: touch;")
	assert.Contains(t, got, "detectSPen();")
	assert.Contains(t, got, "new ConfirmModal(this.app, '통계를 초기화할까요?', (confirmed) => {")
	assert.Empty(t, writeback.ASTErrors([]byte(got), recipe.QuizBundle), "patched bundle still parses")

	diags, err := linter.ConfirmCalls([]byte(got))
	require.NoError(t, err)
	assert.Empty(t, diags)

	entries, err := f.journal.Recent(context.Background(), 10, recipe.QuizBundle)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
	assert.Equal(t, entries[0].BeforeSHA, entries[1].AfterSHA, "each recipe starts from the previous result")
}

func TestIntegration_RerunIsNoop(t *testing.T) {
	f := setup(t)
	recipes := builtins(t, "quiz-mobile-touch", "quiz-galaxy-ultra", "quiz-spen")

	_, err := f.runner.Run(context.Background(), recipes...)
	require.NoError(t, err)
	once := f.bundle(t)

	reports, err := f.runner.Run(context.Background(), recipes...)
	require.NoError(t, err)
	for _, rep := range reports {
		assert.Equal(t, journal.StatusUnchanged, rep.Files[0].Status, rep.Recipe)
	}
	assert.Equal(t, once, f.bundle(t))
}

func TestIntegration_ValidationRefusesBrokenSplice(t *testing.T) {
	f := setup(t)
	m := &api.Manifest{Name: "broken", Files: []api.File{{
		Path: recipe.QuizBundle,
		Steps: []api.Step{{
			Op:          "splice",
			Markers:     &api.Markers{Start: api.Anchor{Text: "reset(stats) {"}, End: api.Anchor{Text: "class QuizPlugin"}},
			Replacement: "\n        if (",
		}},
	}}}
	rc, err := recipe.FromManifest(m)
	require.NoError(t, err)

	reports, err := f.runner.Run(context.Background(), rc)
	require.Error(t, err)
	assert.ErrorContains(t, err, "refusing to write")
	assert.Equal(t, journal.StatusFailed, reports[0].Files[0].Status)
	assert.Equal(t, quizSource, f.bundle(t))
}

func TestIntegration_LockContention(t *testing.T) {
	f := setup(t)
	unlock, err := f.vault.Lock(context.Background(), time.Second)
	require.NoError(t, err)
	defer func() { _ = unlock() }()

	other, err := vault.Open(f.root)
	require.NoError(t, err)
	r := &recipe.Runner{Env: &recipe.Env{Vault: other}, LockTimeout: 100 * time.Millisecond}
	_, err = r.Run(context.Background(), builtins(t, "quiz-galaxy-ultra")...)
	assert.ErrorIs(t, err, vault.ErrLocked)
	assert.Equal(t, quizSource, f.bundle(t))
}

func TestIntegration_CRLFPreserved(t *testing.T) {
	f := setup(t)
	crlf := strings.ReplaceAll(quizSource, "\n", "\r\n")
	// a bare LF inside a template literal is part of the string value
	crlf = strings.Replace(crlf, "\r\n\r\n", "\r\nconst tip = `two\nlines`;\r\n", 1)
	require.NoError(t, os.WriteFile(filepath.Join(f.root, filepath.FromSlash(recipe.QuizBundle)), []byte(crlf), 0o644))

	_, err := f.runner.Run(context.Background(), builtins(t, "quiz-mobile-touch", "quiz-spen")...)
	require.NoError(t, err)

	got := f.bundle(t)
	assert.Contains(t, got, "nextBtn.style.fontWeight = 'bold';\r\n")
	assert.Contains(t, got, "nextBtn.style.touchAction = 'manipulation';\r\n")
	assert.Contains(t, got, "        detectSPen();\r\n")
	assert.Contains(t, got, "const tip = `two\nlines`;\r\n")
	assert.Equal(t, 1, strings.Count(got, "\n")-strings.Count(got, "\r\n"), "only the template literal keeps a bare LF")
}

func TestIntegration_DryRunJournalsWithoutWriting(t *testing.T) {
	f := setup(t)
	f.runner.Env.Options.DryRun = true

	reports, err := f.runner.Run(context.Background(), builtins(t, "quiz-galaxy-ultra")...)
	require.NoError(t, err)
	assert.Contains(t, reports[0].Files[0].Result.Diff, "+        const swipeThreshold = 60;")
	assert.Equal(t, quizSource, f.bundle(t))

	entries, err := f.journal.Recent(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, journal.StatusDryRun, entries[0].Status)
	assert.Equal(t, f.root, entries[0].Vault)
}
