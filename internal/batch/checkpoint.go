package batch

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/archetype-cli/internal/table"
)

// Checkpointer persists partial results between rows.
type Checkpointer interface {
	// Save overwrites the snapshot.
	Save(t *table.Table) error
	// Load returns the snapshot, or (nil, nil) when none exists.
	Load() (*table.Table, error)
	// Remove deletes the snapshot. Removing a missing snapshot is not an error.
	Remove() error
	Path() string
}

// FileCheckpointer stores the snapshot as a table file. The format follows
// the path's extension.
type FileCheckpointer struct {
	path string
}

// NewFileCheckpointer creates a file checkpointer.
func NewFileCheckpointer(path string) (*FileCheckpointer, error) {
	if _, err := table.FormatFromPath(path); err != nil {
		return nil, eris.Wrap(err, "batch: checkpoint path")
	}
	return &FileCheckpointer{path: path}, nil
}

// CheckpointPathFor derives a checkpoint path from the input file when none is
// configured: the input's directory, "progress_backup" plus its extension.
func CheckpointPathFor(input string) string {
	ext := strings.ToLower(filepath.Ext(input))
	if ext == "" {
		ext = ".csv"
	}
	return filepath.Join(filepath.Dir(input), "progress_backup"+ext)
}

// Path implements Checkpointer.
func (c *FileCheckpointer) Path() string { return c.path }

// Save implements Checkpointer. The snapshot is written next to the target
// and renamed over it.
func (c *FileCheckpointer) Save(t *table.Table) error {
	ext := filepath.Ext(c.path)
	tmp := strings.TrimSuffix(c.path, ext) + ".tmp" + ext
	if err := table.Write(tmp, t); err != nil {
		return eris.Wrap(err, "batch: write checkpoint")
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrap(err, "batch: replace checkpoint")
	}
	return nil
}

// Load implements Checkpointer.
func (c *FileCheckpointer) Load() (*table.Table, error) {
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	t, err := table.Read(c.path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: read checkpoint")
	}
	return t, nil
}

// Remove implements Checkpointer.
func (c *FileCheckpointer) Remove() error {
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return eris.Wrap(err, "batch: remove checkpoint")
	}
	return nil
}
