package letterboxd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSelectorsValidate(t *testing.T) {
	if err := DefaultSelectors().Validate(); err != nil {
		t.Fatalf("default selector set does not validate: %v", err)
	}
}

func TestLoadSelectorsMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.json")
	override := `{
		"version": 7,
		"selectors": {
			"profile": {"header": "section.new-header"},
			"custom":  {"thing": "div.thing"}
		}
	}`
	if err := os.WriteFile(path, []byte(override), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	cfg, err := LoadSelectors(path)
	if err != nil {
		t.Fatalf("LoadSelectors: %v", err)
	}
	if cfg.Version != 7 {
		t.Errorf("Version = %d, want 7", cfg.Version)
	}
	if got := cfg.Get("profile", "header"); got != "section.new-header" {
		t.Errorf("overridden selector = %q", got)
	}
	// Untouched defaults survive the merge.
	if got := cfg.Get("watchlist", "next_page"); got != "a.next" {
		t.Errorf("default selector = %q, want a.next", got)
	}
	if got := cfg.Get("custom", "thing"); got != "div.thing" {
		t.Errorf("new category selector = %q", got)
	}
}

func TestLoadSelectorsRejectsInvalidSelector(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.json")
	if err := os.WriteFile(path, []byte(`{"selectors": {"profile": {"header": "[[["}}}`), 0o644); err != nil {
		t.Fatalf("write override: %v", err)
	}
	if _, err := LoadSelectors(path); err == nil {
		t.Fatal("LoadSelectors accepted an unparsable selector")
	}
}

func TestSetValidatesAndBumpsVersion(t *testing.T) {
	cfg := DefaultSelectors()
	before := cfg.Version

	if err := cfg.Set("profile", "header", "section.other"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if cfg.Version != before+1 {
		t.Errorf("Version = %d, want %d", cfg.Version, before+1)
	}
	if err := cfg.Set("profile", "header", "[[["); err == nil {
		t.Fatal("Set accepted an unparsable selector")
	}
}

func TestSaveRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.json")
	cfg := DefaultSelectors()
	if err := cfg.Set("profile", "header", "section.saved"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadSelectors(path)
	if err != nil {
		t.Fatalf("LoadSelectors: %v", err)
	}
	if got := loaded.Get("profile", "header"); got != "section.saved" {
		t.Errorf("reloaded selector = %q, want section.saved", got)
	}
}
