package textutil_test

import (
	"testing"

	"mpvscraper/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"The X-Files", "The X-Files"},
		{"Face/Off", "Face-Off"},
		{"What If...?: Season 1", "What If...- Season 1"},
		{"  <Pilot>  ", "Pilot"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := textutil.SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCacheToken(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Breaking Bad", "breaking_bad"},
		{"Café Society", "cafe_society"},
		{"Amélie", "amelie"},
		{"M*A*S*H", "m_a_s_h"},
		{"1899", "1899"},
		{"  ", "unknown"},
		{"---", "unknown"},
	}
	for _, tc := range cases {
		if got := textutil.CacheToken(tc.in); got != tc.want {
			t.Errorf("CacheToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCacheTokenStableAcrossAccents(t *testing.T) {
	if textutil.CacheToken("Pokémon") != textutil.CacheToken("Pokemon") {
		t.Error("accented and plain titles should share a cache token")
	}
}
