// Package txlog records filesystem mutations as an append-only journal so a
// scrape run can be rolled back file by file.
package txlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mpvscraper/internal/fileutil"
	"mpvscraper/internal/logging"
)

// Operation kinds recorded in the journal.
const (
	OpCreate = "create"
	OpModify = "modify"
)

// Entry is one journal line. Backup is set only for modify entries and
// points at the pre-modification copy of Path.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Op        string    `json:"op"`
	Path      string    `json:"path"`
	Backup    string    `json:"backup,omitempty"`
}

// Logger appends entries to an NDJSON journal. Each record is written and
// synced before the caller proceeds, so a crash mid-run leaves a journal
// that still covers every mutation already on disk.
type Logger struct {
	path   string
	file   *os.File
	logger *slog.Logger
}

// Open creates or continues the journal at path.
func Open(path string, logger *slog.Logger) (*Logger, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("txlog: create directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("txlog: open journal: %w", err)
	}
	return &Logger{
		path:   path,
		file:   file,
		logger: logging.NewComponentLogger(logger, "txlog"),
	}, nil
}

// Path returns the journal location.
func (l *Logger) Path() string { return l.path }

// LogCreate records that path is about to be created from scratch. Undo
// removes the file.
func (l *Logger) LogCreate(path string) error {
	return l.append(Entry{Timestamp: time.Now().UTC(), Op: OpCreate, Path: path})
}

// LogModify backs up the current content of path next to backupDir and
// records the pair. Undo restores the backup over the path.
func (l *Logger) LogModify(path, backupDir string) error {
	backup := filepath.Join(backupDir, fmt.Sprintf("%s.%d.bak", filepath.Base(path), time.Now().UnixNano()))
	if err := fileutil.CopyFile(path, backup); err != nil {
		return fmt.Errorf("txlog: back up %s: %w", path, err)
	}
	return l.append(Entry{Timestamp: time.Now().UTC(), Op: OpModify, Path: path, Backup: backup})
}

func (l *Logger) append(entry Entry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("txlog: encode entry: %w", err)
	}
	line = append(line, '\n')
	if _, err := l.file.Write(line); err != nil {
		return fmt.Errorf("txlog: append entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("txlog: sync journal: %w", err)
	}
	l.logger.Debug("recorded", "op", entry.Op, "path", entry.Path)
	return nil
}

// Close releases the journal file handle.
func (l *Logger) Close() error {
	return l.file.Close()
}

// Read parses the journal at path in write order. Malformed lines are
// reported through logger and dropped rather than aborting the whole undo.
func Read(path string, logger *slog.Logger) ([]Entry, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("txlog: open journal: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			logger.Warn("skipping malformed journal line", "line", lineNo, logging.Error(err))
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("txlog: read journal: %w", err)
	}
	return entries, nil
}

// Revert replays the journal at path in reverse: created files are removed,
// modified files are restored from their backups. Already-missing targets
// are skipped so a partially undone run can be undone again. On a clean
// replay the journal itself is removed.
func Revert(path string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	log := logging.NewComponentLogger(logger, "txlog")

	entries, err := Read(path, log)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	reverted := 0
	failed := false
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		switch entry.Op {
		case OpCreate:
			if !fileutil.FileExists(entry.Path) {
				log.Debug("already absent", "path", entry.Path)
				continue
			}
			if err := os.Remove(entry.Path); err != nil {
				log.Warn("remove failed", "path", entry.Path, logging.Error(err))
				failed = true
				continue
			}
			reverted++
		case OpModify:
			if !fileutil.FileExists(entry.Backup) {
				log.Warn("backup missing", "path", entry.Path, "backup", entry.Backup)
				continue
			}
			if err := os.Rename(entry.Backup, entry.Path); err != nil {
				log.Warn("restore failed", "path", entry.Path, logging.Error(err))
				failed = true
				continue
			}
			reverted++
		default:
			log.Warn("unknown journal op", "op", entry.Op, "path", entry.Path)
		}
	}

	if !failed {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Warn("journal cleanup failed", logging.Error(err))
		}
	}
	log.Info("undo finished", "reverted", reverted, "entries", len(entries))
	return reverted, nil
}
