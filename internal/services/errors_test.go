package services_test

import (
	"errors"
	"testing"

	"mpvscraper/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("connection reset")
	err := services.Wrap(services.ErrTransient, "tvdb", "search", "query failed", base)

	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker in %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause in %v", err)
	}
	want := "transient failure: tvdb: search: query failed: connection reset"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "omdb", "details", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("nil marker should default to transient, got %v", err)
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrUnconfigured, "fanarttv", "", "api key missing", nil)
	want := "provider unconfigured: fanarttv: api key missing"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestSoft(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"not found", services.Wrap(services.ErrNotFound, "tmdb", "search", "no results", nil), true},
		{"poor data", services.ErrPoorData, true},
		{"exhausted", services.ErrExhausted, true},
		{"transient", services.ErrTransient, false},
		{"unconfigured", services.ErrUnconfigured, false},
		{"plain", errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := services.Soft(tc.err); got != tc.want {
			t.Errorf("%s: Soft = %v, want %v", tc.name, got, tc.want)
		}
	}
}
