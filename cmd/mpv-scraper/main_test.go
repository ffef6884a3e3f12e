package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeCLIConfig(t *testing.T, base string) string {
	t.Helper()
	mediaDir := filepath.Join(base, "media")
	if err := os.MkdirAll(mediaDir, 0o755); err != nil {
		t.Fatalf("create media dir: %v", err)
	}
	content := fmt.Sprintf(`[paths]
media_dir = %q
cache_dir = %q
log_dir = %q
`, mediaDir, filepath.Join(base, "cache"), filepath.Join(base, "logs"))
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out, "mpv-scraper "+version) {
		t.Fatalf("unexpected version output: %q", out)
	}
}

func TestScanCommand(t *testing.T) {
	base := t.TempDir()
	configPath := writeCLIConfig(t, base)
	mediaDir := filepath.Join(base, "media")

	showDir := filepath.Join(mediaDir, "Paw Patrol")
	if err := os.MkdirAll(showDir, 0o755); err != nil {
		t.Fatalf("create show dir: %v", err)
	}
	episode := filepath.Join(showDir, "Paw Patrol - S01E01 - Pups.mp4")
	if err := os.WriteFile(episode, []byte("video"), 0o644); err != nil {
		t.Fatalf("write episode: %v", err)
	}
	movieDir := filepath.Join(mediaDir, "Movies")
	if err := os.MkdirAll(movieDir, 0o755); err != nil {
		t.Fatalf("create movies dir: %v", err)
	}
	movie := filepath.Join(movieDir, "Inception (2010).mp4")
	if err := os.WriteFile(movie, []byte("video"), 0o644); err != nil {
		t.Fatalf("write movie: %v", err)
	}

	out, _, err := runCLI(t, configPath, "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "Paw Patrol") {
		t.Errorf("scan output missing show: %q", out)
	}
	if !strings.Contains(out, "Found 1 show folders and 1 movies.") {
		t.Errorf("scan output missing summary: %q", out)
	}
}

func TestScanCommandEmptyLibrary(t *testing.T) {
	base := t.TempDir()
	configPath := writeCLIConfig(t, base)

	out, _, err := runCLI(t, configPath, "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(out, "No shows or movies found") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "config.toml")

	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Errorf("init output missing path: %q", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite should fail")
	}
	if _, _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("init --overwrite: %v", err)
	}
}

func TestJobsCommandWithoutHistory(t *testing.T) {
	base := t.TempDir()
	configPath := writeCLIConfig(t, base)

	out, _, err := runCLI(t, configPath, "jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	if !strings.Contains(out, "No jobs recorded yet.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestJobsCommandListsHistory(t *testing.T) {
	base := t.TempDir()
	configPath := writeCLIConfig(t, base)

	historyPath := filepath.Join(base, "media", ".mpv-scraper", "jobs.json")
	if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
		t.Fatalf("create state dir: %v", err)
	}
	history := `{"a1b2c3d4e5f6":{"name":"run-library","status":"completed","progress":4,"total":4,"error":""}}`
	if err := os.WriteFile(historyPath, []byte(history), 0o644); err != nil {
		t.Fatalf("write history: %v", err)
	}

	out, _, err := runCLI(t, configPath, "jobs")
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	if !strings.Contains(out, "a1b2c3d4e5f6") || !strings.Contains(out, "run-library") {
		t.Errorf("history row missing: %q", out)
	}
	if !strings.Contains(out, "completed") {
		t.Errorf("status missing: %q", out)
	}
	if !strings.Contains(out, "4/4") {
		t.Errorf("progress column missing: %q", out)
	}
}

func TestUndoCommandWithNothingToUndo(t *testing.T) {
	base := t.TempDir()
	configPath := writeCLIConfig(t, base)

	out, _, err := runCLI(t, configPath, "undo")
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if !strings.Contains(out, "Nothing to undo.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestScrapeRejectsShowAndMovieTogether(t *testing.T) {
	base := t.TempDir()
	configPath := writeCLIConfig(t, base)

	_, _, err := runCLI(t, configPath, "scrape", "--show", "A", "--movie", "B")
	if err == nil {
		t.Fatal("expected mutually exclusive flag error")
	}
}
