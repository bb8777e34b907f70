// Package store persists sandpile grids and experiment runs. Grids are stored
// as gob+gzip blobs, either one file per label or inside a SQLite database
// alongside run and avalanche records.
package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/kachinap/sandpile-project/internal/core"
)

var (
	// ErrNotFound is returned when no snapshot or run matches a reference.
	ErrNotFound = errors.New("not found")
	// ErrCorrupt is returned when a stored grid cannot be decoded.
	ErrCorrupt = errors.New("corrupt grid blob")
	// ErrInvalidLabel is returned for labels that cannot name a snapshot.
	ErrInvalidLabel = errors.New("invalid snapshot label")
)

// SnapshotStore saves and restores whole grids, border ring included.
type SnapshotStore interface {
	// SaveSnapshot stores g under label and returns a reference that
	// LoadSnapshot accepts.
	SaveSnapshot(ctx context.Context, label string, g *core.IntGrid) (string, error)
	// LoadSnapshot returns the grid stored under ref.
	LoadSnapshot(ctx context.Context, ref string) (*core.IntGrid, error)
}

type gridBlob struct {
	N     int
	Cells []int
}

// EncodeGrid compresses g with gob encoding and gzip compression.
func EncodeGrid(g *core.IntGrid) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("encode grid: nil grid")
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	enc := gob.NewEncoder(gz)
	if err := enc.Encode(gridBlob{N: g.N, Cells: g.Cells()}); err != nil {
		gz.Close()
		return nil, fmt.Errorf("encode grid: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("encode grid: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeGrid reverses EncodeGrid.
func DecodeGrid(blob []byte) (*core.IntGrid, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty blob", ErrCorrupt)
	}
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip: %v", ErrCorrupt, err)
	}
	defer gz.Close()

	var gb gridBlob
	if err := gob.NewDecoder(gz).Decode(&gb); err != nil {
		return nil, fmt.Errorf("%w: gob: %v", ErrCorrupt, err)
	}
	g, err := core.FromCells(gb.N, gb.Cells)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return g, nil
}
