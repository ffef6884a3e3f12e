package gamelist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"mpvscraper/internal/metadata"
)

// SnapshotName is the per-directory record cache written after a successful
// scrape. Its presence (plus the artwork files) is what makes reruns skip
// directories that are already done.
const SnapshotName = ".scrape_cache.json"

// SaveSnapshot persists the resolved record into dir.
func SaveSnapshot(dir string, record *metadata.Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("gamelist: encode snapshot: %w", err)
	}
	path := filepath.Join(dir, SnapshotName)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("gamelist: write snapshot %s: %w", path, err)
	}
	return nil
}

// LoadSnapshot reads a previously saved record from dir. Absent or corrupt
// snapshots return (nil, nil); the caller simply scrapes again.
func LoadSnapshot(dir string) (*metadata.Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, SnapshotName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("gamelist: read snapshot: %w", err)
	}
	var record metadata.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, nil
	}
	return &record, nil
}

// SnapshotExists reports whether dir already holds a snapshot.
func SnapshotExists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, SnapshotName))
	return err == nil && !info.IsDir()
}

// IndexName is the Movies-directory counterpart of SnapshotName: one file
// mapping movie filename to its resolved record.
const IndexName = ".scrape_index.json"

// SaveIndex persists the per-file record map for a Movies directory.
func SaveIndex(dir string, index map[string]*metadata.Record) error {
	data, err := json.MarshalIndent(index, "", "  ")
	if err != nil {
		return fmt.Errorf("gamelist: encode index: %w", err)
	}
	path := filepath.Join(dir, IndexName)
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("gamelist: write index %s: %w", path, err)
	}
	return nil
}

// LoadIndex reads the Movies-directory record map. Absent or corrupt files
// return an empty map.
func LoadIndex(dir string) (map[string]*metadata.Record, error) {
	data, err := os.ReadFile(filepath.Join(dir, IndexName))
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*metadata.Record{}, nil
		}
		return nil, fmt.Errorf("gamelist: read index: %w", err)
	}
	index := map[string]*metadata.Record{}
	if err := json.Unmarshal(data, &index); err != nil {
		return map[string]*metadata.Record{}, nil
	}
	return index, nil
}
