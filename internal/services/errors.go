package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers classifying provider and pipeline failures. Callers wrap
// errors with one of these via Wrap and branch with errors.Is.
var (
	// ErrUnconfigured marks a provider that has no credentials; fail fast,
	// never retried.
	ErrUnconfigured = errors.New("provider unconfigured")
	// ErrTransient marks network-level failures worth retrying.
	ErrTransient = errors.New("transient failure")
	// ErrNotFound marks an empty provider result. Not a failure; it drives
	// the fallback chain.
	ErrNotFound = errors.New("not found")
	// ErrPoorData marks a record that failed the quality predicate.
	ErrPoorData = errors.New("poor data")
	// ErrExhausted marks a lookup where no provider produced usable data.
	ErrExhausted = errors.New("providers exhausted")
	// ErrValidation marks malformed input or configuration.
	ErrValidation = errors.New("validation error")
	// ErrExternalTool marks a failure in an external binary (ffmpeg, ffprobe).
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Soft reports whether err is an expected per-item outcome the run should
// absorb (no metadata, degraded record) rather than surface as a failure.
func Soft(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrPoorData) || errors.Is(err, ErrExhausted)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
