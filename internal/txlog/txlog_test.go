package txlog_test

import (
	"os"
	"path/filepath"
	"testing"

	"mpvscraper/internal/txlog"
)

func TestUndoRoundTrip(t *testing.T) {
	dir := t.TempDir()
	journal := filepath.Join(dir, "state", "transactions.log")
	backups := filepath.Join(dir, "state", "backups")

	existing := filepath.Join(dir, "gamelist.xml")
	if err := os.WriteFile(existing, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	created := filepath.Join(dir, "images", "poster.png")

	log, err := txlog.Open(journal, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := log.LogModify(existing, backups); err != nil {
		t.Fatalf("LogModify: %v", err)
	}
	if err := os.WriteFile(existing, []byte("rewritten"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := log.LogCreate(created); err != nil {
		t.Fatalf("LogCreate: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(created), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(created, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reverted, err := txlog.Revert(journal, nil)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if reverted != 2 {
		t.Errorf("reverted = %d, want 2", reverted)
	}

	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatalf("read restored file: %v", err)
	}
	if string(data) != "original" {
		t.Errorf("restored content = %q", data)
	}
	if _, err := os.Stat(created); !os.IsNotExist(err) {
		t.Error("created file survived undo")
	}
	if _, err := os.Stat(journal); !os.IsNotExist(err) {
		t.Error("journal survived a clean undo")
	}
}

func TestRevertSkipsMissingTargets(t *testing.T) {
	dir := t.TempDir()
	journal := filepath.Join(dir, "transactions.log")

	log, err := txlog.Open(journal, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	never := filepath.Join(dir, "never-written.png")
	if err := log.LogCreate(never); err != nil {
		t.Fatalf("LogCreate: %v", err)
	}
	log.Close()

	reverted, err := txlog.Revert(journal, nil)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if reverted != 0 {
		t.Errorf("reverted = %d, want 0", reverted)
	}
}

func TestRevertMissingJournalIsNoop(t *testing.T) {
	reverted, err := txlog.Revert(filepath.Join(t.TempDir(), "absent.log"), nil)
	if err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if reverted != 0 {
		t.Errorf("reverted = %d", reverted)
	}
}

func TestReadDropsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	journal := filepath.Join(dir, "transactions.log")
	content := `{"timestamp":"2026-01-02T03:04:05Z","op":"create","path":"/a"}
this is not json
{"timestamp":"2026-01-02T03:04:06Z","op":"modify","path":"/b","backup":"/b.bak"}
`
	if err := os.WriteFile(journal, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := txlog.Read(journal, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Op != txlog.OpCreate || entries[1].Backup != "/b.bak" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestRevertIsReverseOrdered(t *testing.T) {
	dir := t.TempDir()
	journal := filepath.Join(dir, "transactions.log")
	backups := filepath.Join(dir, "backups")
	target := filepath.Join(dir, "file.txt")

	if err := os.WriteFile(target, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	log, err := txlog.Open(journal, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	// Two successive modifies; undo must land back on v1, not v2.
	if err := log.LogModify(target, backups); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(target, []byte("v2"), 0o644)
	if err := log.LogModify(target, backups); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(target, []byte("v3"), 0o644)
	log.Close()

	if _, err := txlog.Revert(journal, nil); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	data, _ := os.ReadFile(target)
	if string(data) != "v1" {
		t.Errorf("content after undo = %q, want v1", data)
	}
}
