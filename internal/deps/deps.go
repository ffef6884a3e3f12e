// Package deps discovers the external binaries the artwork pipeline can use.
// Both ffmpeg and ffprobe are optional: without them episode screenshot
// fallback degrades to placeholder images instead of failing the run.
package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary mpv-scraper relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Defaults lists the binaries the scrape pipeline knows how to use.
func Defaults() []Requirement {
	return []Requirement{
		{
			Name:        "ffmpeg",
			Command:     "ffmpeg",
			Description: "frame capture fallback for episode images",
			Optional:    true,
		},
		{
			Name:        "ffprobe",
			Command:     "ffprobe",
			Description: "video duration probing for capture offsets",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Available reports whether the named binary resolves on PATH.
func Available(command string) bool {
	command = strings.TrimSpace(command)
	if command == "" {
		return false
	}
	_, err := exec.LookPath(command)
	return err == nil
}
