// Package config handles the only client-local persisted state: display
// preferences (theme, language, notifications). Preferences live in a JSON
// file and are hot-reloaded when another process writes it, so a change made
// elsewhere applies to a running client immediately.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Theme names.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Preferences is the persisted client state. Everything else the client
// shows is server-owned and refetched per session.
type Preferences struct {
	Theme         string `json:"theme"`
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
}

// DefaultPreferences returns the out-of-the-box preferences.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:         ThemeDark,
		Language:      "en",
		Notifications: true,
	}
}

// DefaultPath returns the standard preferences location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".nebula/preferences.json"
	}
	return filepath.Join(dir, "nebula", "preferences.json")
}

// Load reads preferences from path. A missing file yields defaults; a
// corrupt file is an error so a typo never silently resets state.
func Load(path string) (Preferences, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("read preferences: %w", err)
	}
	prefs := DefaultPreferences()
	if err := json.Unmarshal(data, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("parse preferences: %w", err)
	}
	return prefs, nil
}

// Save writes preferences to path, creating parent directories as needed.
func Save(path string, prefs Preferences) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return os.Rename(tmp, path)
}

// Watch reloads preferences whenever the file changes and delivers them on
// the returned channel. Close the returned stopper to end the watch.
func Watch(path string, log zerolog.Logger) (<-chan Preferences, func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	// Watch the directory: editors and atomic saves replace the file, which
	// would drop a watch on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, nil, err
	}

	updates := make(chan Preferences, 1)
	go func() {
		defer close(updates)
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				prefs, err := Load(path)
				if err != nil {
					log.Warn().Err(err).Msg("preferences reload failed")
					continue
				}
				// Collapse bursts: keep only the latest update pending.
				select {
				case updates <- prefs:
				default:
					select {
					case <-updates:
					default:
					}
					updates <- prefs
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("preferences watcher error")
			}
		}
	}()
	return updates, func() { watcher.Close() }, nil
}
