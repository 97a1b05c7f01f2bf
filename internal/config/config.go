package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "quill.db"
)

type Keymap struct {
	Quit      string `toml:"quit"`
	NextPane  string `toml:"next_pane"`
	PrevPane  string `toml:"prev_pane"`
	Up        string `toml:"up"`
	Down      string `toml:"down"`
	NewNote   string `toml:"new_note"`
	NewFolder string `toml:"new_folder"`
	Edit      string `toml:"edit"`
	Delete    string `toml:"delete"`
	Search    string `toml:"search"`
	Move      string `toml:"move"`
	Save      string `toml:"save"`
	Confirm   string `toml:"confirm"`
	Cancel    string `toml:"cancel"`
}

type Config struct {
	// DBPath locates the session snapshot database. An empty value
	// disables persistence and runs purely in memory.
	DBPath  string `toml:"db_path"`
	LogPath string `toml:"log_path"`
	// DefaultFolder names the folder id that receives notes created
	// while the "all" filter is active. Empty or unknown ids fall back
	// to the first real folder.
	DefaultFolder string `toml:"default_folder"`
	Keys          Keymap `toml:"keys"`
}

// ResolveConfigPath places the config under the user config dir, falling
// back to the working directory when that cannot be resolved.
func ResolveConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, "quill", DefaultConfigFileName)
}

// LoadOrCreate reads the config at path, writing the defaults there
// first when no file exists yet.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		DBPath: DefaultDBName,
		Keys: Keymap{
			Quit:      "q",
			NextPane:  "tab",
			PrevPane:  "shift+tab",
			Up:        "k",
			Down:      "j",
			NewNote:   "n",
			NewFolder: "f",
			Edit:      "e",
			Delete:    "d",
			Search:    "/",
			Move:      "m",
			Save:      "ctrl+s",
			Confirm:   "enter",
			Cancel:    "esc",
		},
	}
}
