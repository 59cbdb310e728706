// Package vault gives vault-relative access to an Obsidian vault on disk or
// in memory.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/gofrs/flock"
	"golang.org/x/text/unicode/norm"
)

// LockFile is created at the vault root while a run holds the vault.
const LockFile = ".vaultpatch.lock"

// ConfigDir is Obsidian's per-vault configuration directory.
const ConfigDir = ".obsidian"

// ErrLocked is returned when another run holds the vault lock.
var ErrLocked = errors.New("vault is locked by another run")

// Vault is a directory tree addressed by vault-relative paths.
type Vault struct {
	root string
	fs   billy.Filesystem
}

// Open returns the vault rooted at root, which must be an existing directory.
func Open(root string) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", abs)
	}
	return &Vault{root: abs, fs: osfs.New(abs)}, nil
}

// NewMemory returns an empty in-memory vault.
func NewMemory() *Vault {
	return &Vault{fs: memfs.New()}
}

// FS returns the vault filesystem.
func (v *Vault) FS() billy.Filesystem { return v.fs }

// Root returns the absolute vault directory, or "" for in-memory vaults.
func (v *Vault) Root() string { return v.root }

// ReadFile reads a vault-relative file in full.
func (v *Vault) ReadFile(path string) ([]byte, error) {
	b, err := util.ReadFile(v.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return b, nil
}

// WriteFile writes a file directly, creating parent directories. Patches go
// through writeback instead; this is for seeding and tests.
func (v *Vault) WriteFile(path string, data []byte) error {
	if err := v.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return util.WriteFile(v.fs, path, data, 0o644)
}

// Exists reports whether path exists.
func (v *Vault) Exists(path string) bool {
	_, err := v.fs.Stat(path)
	return err == nil
}

// Lock takes the vault-wide lock, polling until timeout or ctx expires.
// In-memory vaults return a no-op unlock.
func (v *Vault) Lock(ctx context.Context, timeout time.Duration) (func() error, error) {
	if v.root == "" {
		return func() error { return nil }, nil
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	fl := flock.New(filepath.Join(v.root, LockFile))
	ok, err := fl.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("lock vault: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl.Unlock, nil
}

// Glob returns the files under base whose base-relative slash path matches
// any of the doublestar patterns. Names and patterns are compared in NFC, so
// Hangul folder names written by macOS (NFD) still match. Hidden directories
// are skipped. Results are vault-relative and sorted.
func (v *Vault) Glob(base string, patterns ...string) ([]string, error) {
	pats := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = norm.NFC.String(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q", p)
		}
		pats = append(pats, p)
	}

	var out []string
	walkRoot := base
	if walkRoot == "" {
		walkRoot = "."
	}
	err := util.Walk(v.fs, walkRoot, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if path == walkRoot {
				return err
			}
			return nil
		}
		if info.IsDir() {
			if path != walkRoot && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return nil
		}
		name := norm.NFC.String(filepath.ToSlash(rel))
		for _, p := range pats {
			if ok, _ := doublestar.Match(p, name); ok {
				out = append(out, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", walkRoot, err)
	}
	sort.Strings(out)
	return out, nil
}
