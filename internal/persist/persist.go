// Package persist loads and saves the JSON snapshots kept under the pacsea
// configuration directory.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadJSON decodes path into v. A missing file is not an error and leaves v
// untouched; found reports whether the file existed.
func LoadJSON(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("persist: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("persist: decode %s: %w", path, err)
	}
	return true, nil
}

// SaveJSON writes v to path through a temporary file and rename, so readers
// never observe a partially written snapshot.
func SaveJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("persist: encode %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("persist: temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("persist: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: rename %s: %w", path, err)
	}
	return nil
}

// Snapshot couples a dirty flag with the function that serializes the
// in-memory structure it guards.
type Snapshot struct {
	Name  string
	Path  string
	Dirty func() bool
	Value func() any
	Clean func()
}

// Flush saves every dirty snapshot. A failed save keeps its dirty flag set so
// the next flush retries; all failures are joined into the returned error.
func Flush(snaps []Snapshot) error {
	var errs []error
	for _, s := range snaps {
		if !s.Dirty() {
			continue
		}
		if err := SaveJSON(s.Path, s.Value()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		s.Clean()
	}
	return errors.Join(errs...)
}
