package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kachinap/sandpile-project/internal/core"
)

// SnapshotExt is appended to the label of every snapshot file.
const SnapshotExt = ".grid.gz"

// FileStore keeps one gob+gzip file per snapshot label inside Dir.
type FileStore struct {
	Dir string
}

// NewFileStore returns a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot directory must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

// Path returns the file that holds label.
func (s *FileStore) Path(label string) string {
	return filepath.Join(s.Dir, label+SnapshotExt)
}

// SaveSnapshot writes g to <Dir>/<label>.grid.gz, replacing any earlier
// snapshot with the same label. The returned reference is the label.
func (s *FileStore) SaveSnapshot(ctx context.Context, label string, g *core.IntGrid) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := checkLabel(label); err != nil {
		return "", err
	}
	blob, err := EncodeGrid(g)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.Dir, "."+label+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("save snapshot %q: %w", label, err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return "", fmt.Errorf("save snapshot %q: %w", label, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("save snapshot %q: %w", label, err)
	}
	if err := os.Rename(tmp.Name(), s.Path(label)); err != nil {
		return "", fmt.Errorf("save snapshot %q: %w", label, err)
	}
	return label, nil
}

// LoadSnapshot reads the snapshot saved under ref.
func (s *FileStore) LoadSnapshot(ctx context.Context, ref string) (*core.IntGrid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkLabel(ref); err != nil {
		return nil, err
	}
	g, err := ReadSnapshotFile(s.Path(ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("snapshot %q: %w", ref, ErrNotFound)
	}
	return g, err
}

// Labels lists the stored snapshot labels in lexical order.
func (s *FileStore) Labels() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, "*"+SnapshotExt))
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(matches))
	for _, m := range matches {
		labels = append(labels, strings.TrimSuffix(filepath.Base(m), SnapshotExt))
	}
	return labels, nil
}

// ReadSnapshotFile decodes a snapshot file written by FileStore.
func ReadSnapshotFile(path string) (*core.IntGrid, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := DecodeGrid(blob)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return g, nil
}

func checkLabel(label string) error {
	if label == "" || label == "." || label == ".." || strings.ContainsAny(label, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
	}
	return nil
}
