// Package gamelist renders EmulationStation-compatible gamelist.xml files.
// Paths inside the XML are relative to the file itself, with artwork living
// alongside the list it belongs to.
package gamelist

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

const xmlHeader = "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n"

// Folder is one top-level entry: a show directory or the Movies directory.
type Folder struct {
	XMLName xml.Name `xml:"folder"`
	Path    string   `xml:"path"`
	Name    string   `xml:"name"`
	Image   string   `xml:"image,omitempty"`
}

// Game is one playable entry: an episode or a movie file.
type Game struct {
	XMLName     xml.Name `xml:"game"`
	Path        string   `xml:"path"`
	Name        string   `xml:"name"`
	Desc        string   `xml:"desc,omitempty"`
	Image       string   `xml:"image,omitempty"`
	Rating      string   `xml:"rating,omitempty"`
	Marquee     string   `xml:"marquee,omitempty"`
	ReleaseDate string   `xml:"releasedate,omitempty"`
	Developer   string   `xml:"developer,omitempty"`
	Publisher   string   `xml:"publisher,omitempty"`
	Genre       string   `xml:"genre,omitempty"`
	Video       string   `xml:"video,omitempty"`
	Thumbnail   string   `xml:"thumbnail,omitempty"`
}

type folderList struct {
	XMLName xml.Name `xml:"gameList"`
	Folders []Folder `xml:"folder"`
}

type gameList struct {
	XMLName xml.Name `xml:"gameList"`
	Games   []Game   `xml:"game"`
}

// FormatRating renders a 0..1 rating the way EmulationStation expects, or
// errors when the value is out of range. Callers pass normalized ratings;
// anything else indicates a provider mapping bug.
func FormatRating(rating float64) (string, error) {
	if rating < 0 || rating > 1 {
		return "", fmt.Errorf("gamelist: rating %v outside 0..1", rating)
	}
	return fmt.Sprintf("%.2f", rating), nil
}

// Relative prefixes path with "./" the way EmulationStation resolves
// list-relative entries. Empty stays empty.
func Relative(path string) string {
	if path == "" {
		return ""
	}
	return "./" + strings.TrimPrefix(strings.TrimPrefix(path, "./"), "/")
}

// WriteTop writes the library-root gamelist.xml listing folders.
func WriteTop(folders []Folder, dest string) error {
	for i := range folders {
		folders[i].Path = Relative(folders[i].Path)
		folders[i].Image = Relative(folders[i].Image)
	}
	return write(folderList{Folders: folders}, dest)
}

// WriteShow writes the per-directory gamelist.xml listing games.
func WriteShow(games []Game, dest string) error {
	for i := range games {
		games[i].Path = Relative(games[i].Path)
		games[i].Image = Relative(games[i].Image)
		games[i].Marquee = Relative(games[i].Marquee)
		games[i].Video = Relative(games[i].Video)
		games[i].Thumbnail = Relative(games[i].Thumbnail)
	}
	return write(gameList{Games: games}, dest)
}

func write(doc any, dest string) error {
	if dir := filepath.Dir(dest); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("gamelist: create directory: %w", err)
		}
	}

	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("gamelist: encode: %w", err)
	}
	buf.WriteByte('\n')

	if err := renameio.WriteFile(dest, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("gamelist: write %s: %w", dest, err)
	}
	return nil
}
