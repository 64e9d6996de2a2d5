package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	prefs, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if prefs != DefaultPreferences() {
		t.Errorf("prefs = %+v, want defaults", prefs)
	}
}

func TestLoadCorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("corrupt file should be an error, not a silent reset")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")
	if err := os.WriteFile(path, []byte(`{"theme":"light"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	prefs, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if prefs.Theme != ThemeLight {
		t.Errorf("theme = %q, want light", prefs.Theme)
	}
	if prefs.Language != "en" {
		t.Errorf("language = %q, want default en", prefs.Language)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "preferences.json")
	want := Preferences{Theme: ThemeLight, Language: "de", Notifications: false}
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestWatchDeliversUpdates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preferences.json")
	if err := Save(path, DefaultPreferences()); err != nil {
		t.Fatal(err)
	}

	updates, stop, err := Watch(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	want := Preferences{Theme: ThemeLight, Language: "en", Notifications: true}
	if err := Save(path, want); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-updates:
		if got != want {
			t.Errorf("update = %+v, want %+v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no update delivered")
	}
}

func TestWatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "preferences.json")
	if err := Save(path, DefaultPreferences()); err != nil {
		t.Fatal(err)
	}

	updates, stop, err := Watch(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case prefs := <-updates:
		t.Errorf("unexpected update for unrelated file: %+v", prefs)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCatalog(t *testing.T) {
	tests := []struct {
		name    string
		catalog *Catalog
		key     string
		want    string
	}{
		{"translated", NewCatalog("de", map[string]string{"connected": "verbunden"}), "connected", "verbunden"},
		{"missing key falls back", NewCatalog("de", map[string]string{}), "connected", "connected"},
		{"empty value falls back", NewCatalog("de", map[string]string{"connected": ""}), "connected", "connected"},
		{"nil map", NewCatalog("en", nil), "connected", "connected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.catalog.T(tt.key); got != tt.want {
				t.Errorf("T(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
