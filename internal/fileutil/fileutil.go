// Package fileutil reads whole input files and writes sets of outputs as a
// unit.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Replaceable for failure-path tests.
var (
	osRename      = os.Rename
	tempFileWrite = func(f *os.File, data []byte) (int, error) { return f.Write(data) }
	tempFileSync  = func(f *os.File) error { return f.Sync() }
)

// ReadFile reads the whole file at path.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return data, nil
}

// ReadOptional reads the file at path, reporting ok=false instead of an
// error when it does not exist.
func ReadOptional(path string) (data []byte, ok bool, err error) {
	data, err = os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	return data, true, nil
}

// Output is one file a command produces.
type Output struct {
	Kind string // "csf", "str", "metadata" or "extra"
	Path string
	Data []byte
}

// WriteAll replaces every output and deletes every path in remove, as a unit.
//
// Each output is first written to a synced temporary file next to its
// destination. Only when all of them are staged are the destinations
// swapped in, with any previous file moved aside. If any step fails, the
// files already swapped are put back, so either every change is visible
// or none is. Missing paths in remove are skipped.
//
// Parameters:
//   - outputs: files to write, in commit order
//   - remove: files to delete if present
//   - perm: permission bits of the written files
//
// Returns:
//   - removed: the paths in remove that existed and were deleted
//   - err: the first failure, after rollback
func WriteAll(outputs []Output, remove []string, perm fs.FileMode) (removed []string, err error) {
	changes := make([]*change, 0, len(outputs)+len(remove))
	defer func() {
		if err != nil {
			rollback(changes)
		}
	}()

	for _, out := range outputs {
		temp, stageErr := stage(out.Path, out.Data, perm)
		if stageErr != nil {
			return nil, stageErr
		}
		changes = append(changes, &change{path: out.Path, temp: temp})
	}
	for _, path := range remove {
		changes = append(changes, &change{path: path})
	}

	for _, c := range changes {
		if err = c.apply(); err != nil {
			return nil, err
		}
	}

	for _, c := range changes {
		if c.backup == "" {
			continue
		}
		_ = os.Remove(c.backup)
		if c.temp == "" {
			removed = append(removed, c.path)
		}
	}

	return removed, nil
}

// stage writes data to a synced temporary file in the directory of path and
// returns its name. The temporary file is removed on failure.
func stage(path string, data []byte, perm fs.FileMode) (string, error) {
	tempFile, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	fail := func(what string, err error) (string, error) {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)

		return "", fmt.Errorf("failed to %s %s: %w", what, path, err)
	}

	if _, err := tempFileWrite(tempFile, data); err != nil {
		return fail("write", err)
	}
	if err := tempFileSync(tempFile); err != nil {
		return fail("sync", err)
	}
	if err := tempFile.Chmod(perm); err != nil {
		return fail("chmod", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}

	return tempPath, nil
}

// change is one destination of a WriteAll call.
type change struct {
	path   string
	temp   string // staged content; empty for a removal
	backup string // previous file moved aside; empty if there was none
	placed bool   // temp has been renamed to path
}

func (c *change) apply() error {
	info, err := os.Lstat(c.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("stat %s: %w", c.path, err)
	case info.IsDir():
		return fmt.Errorf("%s is a directory", c.path)
	default:
		if err := c.moveAside(); err != nil {
			return err
		}
	}

	if c.temp == "" {
		return nil
	}
	if err := osRename(c.temp, c.path); err != nil {
		return fmt.Errorf("failed to rename %s: %w", c.path, err)
	}
	c.placed = true

	return nil
}

func (c *change) moveAside() error {
	holder, err := os.CreateTemp(filepath.Dir(c.path), "."+filepath.Base(c.path)+".orig-*")
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	backup := holder.Name()
	_ = holder.Close()

	if err := osRename(c.path, backup); err != nil {
		_ = os.Remove(backup)
		return fmt.Errorf("failed to move %s aside: %w", c.path, err)
	}
	c.backup = backup

	return nil
}

// rollback undoes changes in reverse order and removes staged files.
func rollback(changes []*change) {
	for i := len(changes) - 1; i >= 0; i-- {
		c := changes[i]
		if c.placed {
			_ = os.Remove(c.path)
		} else if c.temp != "" {
			_ = os.Remove(c.temp)
		}
		if c.backup != "" {
			_ = os.Rename(c.backup, c.path)
		}
	}
}
