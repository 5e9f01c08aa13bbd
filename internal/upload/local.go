package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalDestination writes files into a directory.
type LocalDestination struct {
	dir string
}

func NewLocalDestination(dir string) (*LocalDestination, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalDestination{dir: dir}, nil
}

// Save writes r to a temporary file in the directory and renames it over
// name, so readers never observe a partial photo.
func (d *LocalDestination) Save(ctx context.Context, name, _ string, r io.Reader) error {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: bad file name %q", ErrInvalidFile, name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, name)); err != nil {
		return fmt.Errorf("move %s: %w", name, err)
	}
	return nil
}
