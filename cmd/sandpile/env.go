package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kachinap/sandpile-project/internal/config"
	"github.com/kachinap/sandpile-project/internal/core"
	"github.com/kachinap/sandpile-project/internal/logging"
	"github.com/kachinap/sandpile-project/internal/store"
)

// env is the resolved configuration shared by every subcommand.
type env struct {
	cfg *config.File
	log *slog.Logger
	db  *store.DB
}

// loadEnv merges defaults, the --config file, environment variables and
// command-line flags, in that order.
func loadEnv(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	sets, _ := cmd.Flags().GetStringArray("set")
	overrides, err := parseOverrides(sets)
	if err != nil {
		return nil, err
	}
	if cfg.Sandpile, err = cfg.Sandpile.Apply(overrides); err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Storage.DBPath = db
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	e := &env{cfg: cfg}
	if cfg.Logging.Format == "json" {
		e.log = logging.NewJSONLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	} else {
		e.log = logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	}
	return e, nil
}

// parseOverrides turns repeated key=value flags into a map. Later values win.
func parseOverrides(sets []string) (map[string]string, error) {
	kv := make(map[string]string, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: expected key=value", s)
		}
		kv[key] = value
	}
	return kv, nil
}

// openDB opens the configured database, or returns nil when none is set.
func (e *env) openDB() (*store.DB, error) {
	if e.db != nil || e.cfg.Storage.DBPath == "" {
		return e.db, nil
	}
	db, err := store.OpenDB(e.cfg.Storage.DBPath, e.log)
	if err != nil {
		return nil, err
	}
	e.db = db
	return db, nil
}

func (e *env) close() {
	if e.db != nil {
		e.db.Close()
	}
}

// fileStore returns the snapshot directory store, or nil when disabled.
func (e *env) fileStore() (*store.FileStore, error) {
	if e.cfg.Storage.SnapshotDir == "" {
		return nil, nil
	}
	return store.NewFileStore(e.cfg.Storage.SnapshotDir)
}

// loadGrid resolves ref against, in order, a snapshot file path, the
// database and the snapshot directory.
func (e *env) loadGrid(ctx context.Context, ref string) (*core.IntGrid, error) {
	if strings.HasSuffix(ref, store.SnapshotExt) {
		if _, err := os.Stat(ref); err == nil {
			return store.ReadSnapshotFile(ref)
		}
	}

	db, err := e.openDB()
	if err != nil {
		return nil, err
	}
	if db != nil {
		g, err := db.LoadSnapshot(ctx, ref)
		if err == nil || !errors.Is(err, store.ErrNotFound) {
			return g, err
		}
	}

	fsStore, err := e.fileStore()
	if err != nil {
		return nil, err
	}
	if fsStore != nil {
		g, err := fsStore.LoadSnapshot(ctx, ref)
		if err == nil || !errors.Is(err, store.ErrNotFound) {
			return g, err
		}
	}
	return nil, fmt.Errorf("snapshot %q: %w", ref, fs.ErrNotExist)
}

// saveGrid writes g to every configured snapshot store and returns the
// references it was saved under.
func (e *env) saveGrid(ctx context.Context, label string, g *core.IntGrid) ([]string, error) {
	var refs []string

	db, err := e.openDB()
	if err != nil {
		return nil, err
	}
	if db != nil {
		id, err := db.InsertSnapshot(ctx, &store.Snapshot{
			Label:     label,
			Threshold: e.cfg.Sandpile.Threshold,
			Boundary:  e.cfg.Sandpile.Boundary,
			Grid:      g,
		})
		if err != nil {
			return nil, err
		}
		refs = append(refs, id)
	}

	fsStore, err := e.fileStore()
	if err != nil {
		return nil, err
	}
	if fsStore != nil {
		if _, err := fsStore.SaveSnapshot(ctx, label, g); err != nil {
			return nil, err
		}
		refs = append(refs, fsStore.Path(label))
	}
	return refs, nil
}
