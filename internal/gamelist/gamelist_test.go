package gamelist_test

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mpvscraper/internal/gamelist"
	"mpvscraper/internal/metadata"
)

func TestWriteTop(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "gamelist.xml")
	err := gamelist.WriteTop([]gamelist.Folder{
		{Path: "Paw Patrol", Name: "Paw Patrol", Image: "images/paw-patrol.png"},
		{Path: "./Movies", Name: "Movies"},
	}, dest)
	if err != nil {
		t.Fatalf("WriteTop: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Errorf("missing xml declaration:\n%s", content)
	}
	if !strings.Contains(content, "<path>./Paw Patrol</path>") {
		t.Errorf("path not made relative:\n%s", content)
	}
	if !strings.Contains(content, "<image>./images/paw-patrol.png</image>") {
		t.Errorf("image not made relative:\n%s", content)
	}
	if !strings.Contains(content, "<path>./Movies</path>") {
		t.Errorf("already-relative path mangled:\n%s", content)
	}
	if strings.Contains(content, "<image></image>") {
		t.Errorf("empty image element emitted:\n%s", content)
	}

	var doc struct {
		Folders []gamelist.Folder `xml:"folder"`
	}
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("output not parseable: %v", err)
	}
	if len(doc.Folders) != 2 {
		t.Errorf("folders = %d", len(doc.Folders))
	}
}

func TestWriteShow(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "gamelist.xml")
	rating, err := gamelist.FormatRating(0.85)
	if err != nil {
		t.Fatalf("FormatRating: %v", err)
	}
	err = gamelist.WriteShow([]gamelist.Game{
		{
			Path:        "Paw Patrol - S01E01 - Pups Save the Day.mp4",
			Name:        "Pups Save the Day",
			Desc:        "The pups rescue a kitten.",
			Image:       "images/S01E01.png",
			Rating:      rating,
			Marquee:     "images/logo.png",
			ReleaseDate: "20130812T000000",
			Developer:   "Nickelodeon",
			Publisher:   "Spin Master",
			Genre:       "Animation",
		},
	}, dest)
	if err != nil {
		t.Fatalf("WriteShow: %v", err)
	}

	data, _ := os.ReadFile(dest)
	content := string(data)
	for _, want := range []string{
		"<rating>0.85</rating>",
		"<releasedate>20130812T000000</releasedate>",
		"<marquee>./images/logo.png</marquee>",
		"<developer>Nickelodeon</developer>",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("missing %s in:\n%s", want, content)
		}
	}
}

func TestFormatRatingRange(t *testing.T) {
	if _, err := gamelist.FormatRating(1.2); err == nil {
		t.Error("rating above 1 accepted")
	}
	if _, err := gamelist.FormatRating(-0.1); err == nil {
		t.Error("negative rating accepted")
	}
	got, err := gamelist.FormatRating(1)
	if err != nil || got != "1.00" {
		t.Errorf("FormatRating(1) = %q, %v", got, err)
	}
}

func TestRelative(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"a/b.png":    "./a/b.png",
		"./a/b.png":  "./a/b.png",
		"/abs/c.png": "./abs/c.png",
	}
	for in, want := range cases {
		if got := gamelist.Relative(in); got != want {
			t.Errorf("Relative(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()

	if got, err := gamelist.LoadSnapshot(dir); err != nil || got != nil {
		t.Fatalf("LoadSnapshot on empty dir = %v, %v", got, err)
	}
	if gamelist.SnapshotExists(dir) {
		t.Fatal("SnapshotExists on empty dir")
	}

	record := &metadata.Record{
		ID:          "42",
		Source:      "tvdb",
		Kind:        metadata.KindTV,
		DisplayName: "Paw Patrol",
		PosterURL:   "https://example.test/poster.jpg",
		Rating:      0.8,
	}
	if err := gamelist.SaveSnapshot(dir, record); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	if !gamelist.SnapshotExists(dir) {
		t.Error("SnapshotExists false after save")
	}

	got, err := gamelist.LoadSnapshot(dir)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got == nil || got.DisplayName != "Paw Patrol" || got.ID != "42" {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	dir := t.TempDir()

	empty, err := gamelist.LoadIndex(dir)
	if err != nil || len(empty) != 0 {
		t.Fatalf("LoadIndex on empty dir = %v, %v", empty, err)
	}

	index := map[string]*metadata.Record{
		"Inception (2010).mp4": {
			ID:          "27205",
			Source:      "tmdb",
			Kind:        metadata.KindMovie,
			DisplayName: "Inception",
		},
	}
	if err := gamelist.SaveIndex(dir, index); err != nil {
		t.Fatalf("SaveIndex: %v", err)
	}

	got, err := gamelist.LoadIndex(dir)
	if err != nil {
		t.Fatalf("LoadIndex: %v", err)
	}
	record := got["Inception (2010).mp4"]
	if record == nil || record.DisplayName != "Inception" {
		t.Errorf("index = %+v", got)
	}
}

func TestLoadSnapshotCorrupt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, gamelist.SnapshotName), []byte("{nope"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := gamelist.LoadSnapshot(dir)
	if err != nil || got != nil {
		t.Errorf("corrupt snapshot = %v, %v; want nil, nil", got, err)
	}
}
