package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// isolate points every store at a temp directory and clears environment
// overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SANDPILE_SEED", "")
	t.Setenv("SANDPILE_LOG_LEVEL", "")
	t.Setenv("SANDPILE_DB", "")
	cfg := filepath.Join(dir, "experiment.yaml")
	content := "storage:\n  snapshot_dir: " + filepath.Join(dir, "snaps") + "\nrun:\n  progress_interval: 0s\n"
	if err := os.WriteFile(cfg, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestParseOverrides(t *testing.T) {
	kv, err := parseOverrides([]string{"N=20", "boundary=closed", "seed=1", "seed=2"})
	if err != nil {
		t.Fatalf("parseOverrides: %v", err)
	}
	if kv["n"] != "20" || kv["boundary"] != "closed" || kv["seed"] != "2" {
		t.Errorf("unexpected overrides: %v", kv)
	}
	for _, bad := range []string{"size", "=3"} {
		if _, err := parseOverrides([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, version) {
		t.Errorf("version output %q missing %s", out, version)
	}
}

func TestParamsCmdAppliesOverrides(t *testing.T) {
	dir := isolate(t)
	out, err := runCLI(t, "--config", filepath.Join(dir, "experiment.yaml"), "--set", "n=31", "--set", "placement=fixed_center", "params")
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if !strings.Contains(out, "size=31") || !strings.Contains(out, "placement=fixed_center") {
		t.Errorf("overrides missing from output:\n%s", out)
	}

	if _, err := runCLI(t, "--set", "n=2", "params"); err == nil {
		t.Error("expected validation error for n=2")
	}
	if _, err := runCLI(t, "--set", "wind=3", "params"); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestEquilibrateThenRunFromSnapshot(t *testing.T) {
	dir := isolate(t)
	cfg := filepath.Join(dir, "experiment.yaml")
	db := filepath.Join(dir, "pile.db")

	out, err := runCLI(t, "--config", cfg, "--db", db, "--set", "n=12", "equilibrate", "--save", "crit")
	if err != nil {
		t.Fatalf("equilibrate: %v", err)
	}
	if !strings.Contains(out, `Saved snapshot "crit"`) {
		t.Fatalf("snapshot not saved:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "snaps", "crit.grid.gz")); err != nil {
		t.Fatalf("snapshot file missing: %v", err)
	}

	csvPath := filepath.Join(dir, "freq.csv")
	histPath := filepath.Join(dir, "hist.csv")
	out, err = runCLI(t, "--config", cfg, "--db", db, "--set", "n=12",
		"run", "--from", "crit", "--no-equilibrate", "--avalanches", "100",
		"--csv", csvPath, "--hist-csv", histPath, "--record")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Avalanches: 100") {
		t.Errorf("summary missing:\n%s", out)
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatalf("open csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) < 2 || rows[0][0] != "size" || rows[0][1] != "count" {
		t.Errorf("unexpected csv: %v", rows)
	}
	if _, err := os.Stat(histPath); err != nil {
		t.Errorf("histogram csv missing: %v", err)
	}

	id := regexp.MustCompile(`Recorded run (\S+)`).FindStringSubmatch(out)
	if id == nil {
		t.Fatalf("run not recorded:\n%s", out)
	}
	out, err = runCLI(t, "--config", cfg, "--db", db, "runs", "show", id[1])
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	if !strings.Contains(out, "Avalanches: 100") {
		t.Errorf("recorded run summary mismatch:\n%s", out)
	}

	out, err = runCLI(t, "--config", cfg, "--db", db, "runs", "list")
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	if !strings.Contains(out, id[1]) {
		t.Errorf("runs list missing %s:\n%s", id[1], out)
	}
}

func TestRunWithSizeMismatchedSnapshotFails(t *testing.T) {
	dir := isolate(t)
	cfg := filepath.Join(dir, "experiment.yaml")
	if _, err := runCLI(t, "--config", cfg, "--set", "n=10", "equilibrate", "--save", "small"); err != nil {
		t.Fatalf("equilibrate: %v", err)
	}
	_, err := runCLI(t, "--config", cfg, "--set", "n=11", "run", "--from", "small", "--avalanches", "5")
	if err == nil || !strings.Contains(err.Error(), "dimensions") {
		t.Errorf("expected dimension mismatch, got %v", err)
	}
}

func TestRunZeroAvalanches(t *testing.T) {
	dir := isolate(t)
	out, err := runCLI(t, "--config", filepath.Join(dir, "experiment.yaml"), "--set", "n=8", "run", "--avalanches", "0")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "no data") {
		t.Errorf("expected empty summary, got:\n%s", out)
	}
}

func TestCompareCmd(t *testing.T) {
	dir := isolate(t)
	out, err := runCLI(t, "--config", filepath.Join(dir, "experiment.yaml"), "--set", "n=10", "compare", "--avalanches", "50")
	if err != nil {
		t.Fatalf("compare: %v", err)
	}
	for _, name := range []string{"uniform_random", "fixed_center", "border_band"} {
		if !strings.Contains(out, name) {
			t.Errorf("compare output missing %s:\n%s", name, out)
		}
	}
	if !strings.Contains(out, " 1) ") || !strings.Contains(out, " 3) ") {
		t.Errorf("expected three ranked rows:\n%s", out)
	}
}

func TestRunsNeedsDatabase(t *testing.T) {
	dir := isolate(t)
	_, err := runCLI(t, "--config", filepath.Join(dir, "experiment.yaml"), "runs", "list")
	if err == nil || !strings.Contains(err.Error(), "no database") {
		t.Errorf("expected missing database error, got %v", err)
	}
}
