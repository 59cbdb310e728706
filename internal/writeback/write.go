package writeback

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
)

// BackupSuffix is appended to a target path to name its backup copy.
const BackupSuffix = ".bak"

// newFileMode is used when a written file did not exist before.
const newFileMode os.FileMode = 0o644

// WriteFile replaces path with content atomically: a temp file in the same
// directory is written, given the mode of the file it replaces, and renamed
// over it.
func WriteFile(fsys billy.Filesystem, path string, content []byte) error {
	mode := newFileMode
	if info, err := fsys.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %s: %w", dir, err)
	}
	tmp, err := fsys.TempFile(dir, ".vaultpatch-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = fsys.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fsys.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	if ch, ok := fsys.(billy.Change); ok {
		_ = ch.Chmod(tmpName, mode) // best-effort permission sync
	}

	if err := fsys.Rename(tmpName, path); err != nil {
		_ = fsys.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", path, err)
	}
	return nil
}

// Backup writes content to <path>.bak, replacing any previous backup, and
// returns the backup path.
func Backup(fsys billy.Filesystem, path string, content []byte) (string, error) {
	bak := path + BackupSuffix
	if err := WriteFile(fsys, bak, content); err != nil {
		return "", fmt.Errorf("backup %s: %w", path, err)
	}
	return bak, nil
}
