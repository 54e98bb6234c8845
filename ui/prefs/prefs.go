// Package prefs persists the application's user preferences as JSON under
// the user config directory.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	configDirName = "gbr"
	prefsFile     = "preferences.json"
)

// Prefs holds the remembered UI settings.
type Prefs struct {
	// LastDir is the directory of the last opened board image.
	LastDir string `json:"last_dir,omitempty"`
	// ShowMask restores the analysis-region mask visibility.
	ShowMask bool `json:"show_mask"`
	// DisplayMax caps the on-screen image size in pixels. Zero keeps the
	// application default.
	DisplayMax int `json:"display_max,omitempty"`

	path string
}

// Load reads the preferences file, returning defaults when it is missing or
// unreadable.
func Load() *Prefs {
	p := &Prefs{path: prefsPath()}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, p)
	return p
}

// Save writes the preferences to disk, creating the config directory if
// needed.
func (p *Prefs) Save() error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

func prefsPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, configDirName, prefsFile)
}
