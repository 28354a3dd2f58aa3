// Package config loads docmigrate settings from JSONC files.
//
// Precedence, highest wins:
//  1. CLI overrides
//  2. DOCMIGRATE_* environment variables
//  3. explicit file given with --config
//  4. global file ($XDG_CONFIG_HOME/docmigrate/config.json or ~/.config/docmigrate/config.json)
//  5. defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
)

// Defaults.
const (
	DefaultDocHost         = "docs.google.com"
	DefaultAppName         = "docmigrate-1.0"
	DefaultWikiAPI         = "http://localhost/wiki/api.php"
	DefaultRootPage        = "CloudHealth"
	DefaultCategory        = "Default"
	DefaultMarkup          = "mediawiki"
	JournalFileName        = "journal.sqlite"
	EnvWikiUsername        = "DOCMIGRATE_WIKI_USERNAME"
	EnvWikiPassword        = "DOCMIGRATE_WIKI_PASSWORD"
	globalConfigDirName    = "docmigrate"
	globalConfigFileName   = "config.json"
	defaultStateSubdirName = "docmigrate"
)

// Config holds all configuration options.
//
//nolint:tagliatelle // snake_case for config file
type Config struct {
	DocHost         string   `json:"doc_host"`
	AppName         string   `json:"app_name"`
	WikiAPI         string   `json:"wiki_api"`
	WikiUsername    string   `json:"wiki_username,omitempty"`
	WikiPassword    string   `json:"wiki_password,omitempty"`
	RootPage        string   `json:"root_page"`
	DefaultCategory string   `json:"default_category"`
	StagingDir      string   `json:"staging_dir,omitempty"`
	KeepStaging     bool     `json:"keep_staging"`
	Markup          string   `json:"markup"`
	Journal         bool     `json:"journal"`
	StateDir        string   `json:"state_dir,omitempty"`
	HTTPTimeout     Duration `json:"http_timeout"`
	LogLevel        string   `json:"log_level,omitempty"`
	LogFormat       string   `json:"log_format,omitempty"`

	// Sources tracks which config files were loaded (for diagnostics)
	Sources Sources `json:"-"`
}

// Sources tracks which config files were loaded.
type Sources struct {
	Global   string // Path to global config if loaded, empty otherwise
	Explicit string // Path to --config file if given
}

// JournalPath is the journal database location inside StateDir.
func (c Config) JournalPath() string {
	return filepath.Join(c.StateDir, JournalFileName)
}

// Duration is a time.Duration written as a string ("30s", "2m") in config files.
type Duration time.Duration

// UnmarshalJSON parses a duration string. An empty string means zero.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string

	err := json.Unmarshal(data, &s)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimeout, data)
	}

	if s == "" {
		*d = 0

		return nil
	}

	v, err := time.ParseDuration(s)
	if err != nil || v < 0 {
		return fmt.Errorf("%w: %q", ErrInvalidTimeout, s)
	}

	*d = Duration(v)

	return nil
}

// MarshalJSON writes the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	if d == 0 {
		return []byte(`""`), nil
	}

	return json.Marshal(time.Duration(d).String())
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		DocHost:         DefaultDocHost,
		AppName:         DefaultAppName,
		WikiAPI:         DefaultWikiAPI,
		RootPage:        DefaultRootPage,
		DefaultCategory: DefaultCategory,
		Markup:          DefaultMarkup,
		Journal:         true,
	}
}

// Overrides are values given on the command line. Empty fields do not override.
type Overrides struct {
	DocHost  string
	LogLevel string
}

// LoadInput holds the inputs for Load.
type LoadInput struct {
	WorkDir    string            // base for relative paths; os.Getwd() when empty
	ConfigPath string            // -c/--config flag value
	Overrides  Overrides         // CLI flag values
	Env        map[string]string // environment variables
}

// Load resolves the effective configuration. Relative directories in the
// result are made absolute against WorkDir.
func Load(input LoadInput) (Config, error) {
	workDir := input.WorkDir
	if workDir == "" {
		var err error

		workDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("cannot get working directory: %w", err)
		}
	}

	cfg := Default()

	globalPath := globalConfigPath(input.Env)
	if globalPath != "" {
		loaded, err := loadFile(&cfg, globalPath, false)
		if err != nil {
			return Config{}, err
		}

		if loaded {
			cfg.Sources.Global = globalPath
		}
	}

	if input.ConfigPath != "" {
		path := input.ConfigPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}

		_, statErr := os.Stat(path)
		if statErr != nil {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigFileNotFound, input.ConfigPath)
		}

		_, err := loadFile(&cfg, path, true)
		if err != nil {
			return Config{}, err
		}

		cfg.Sources.Explicit = path
	}

	if v := input.Env[EnvWikiUsername]; v != "" {
		cfg.WikiUsername = v
	}

	if v := input.Env[EnvWikiPassword]; v != "" {
		cfg.WikiPassword = v
	}

	if input.Overrides.DocHost != "" {
		cfg.DocHost = input.Overrides.DocHost
	}

	if input.Overrides.LogLevel != "" {
		cfg.LogLevel = input.Overrides.LogLevel
	}

	err := validate(cfg)
	if err != nil {
		return Config{}, err
	}

	cfg.StagingDir = absolute(workDir, cfg.StagingDir)

	if cfg.StateDir == "" {
		cfg.StateDir = defaultStateDir(input.Env)
	}

	cfg.StateDir = absolute(workDir, cfg.StateDir)

	if cfg.Journal && cfg.StateDir == "" {
		return Config{}, ErrNoStateDir
	}

	return cfg, nil
}

// globalConfigPath returns $XDG_CONFIG_HOME/docmigrate/config.json, or
// ~/.config/docmigrate/config.json. Empty if neither variable is set.
func globalConfigPath(env map[string]string) string {
	if xdgConfig := env["XDG_CONFIG_HOME"]; xdgConfig != "" {
		return filepath.Join(xdgConfig, globalConfigDirName, globalConfigFileName)
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".config", globalConfigDirName, globalConfigFileName)
	}

	return ""
}

func defaultStateDir(env map[string]string) string {
	if xdgState := env["XDG_STATE_HOME"]; xdgState != "" {
		return filepath.Join(xdgState, defaultStateSubdirName)
	}

	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".local", "state", defaultStateSubdirName)
	}

	return ""
}

// loadFile overlays the keys present in path onto cfg. A missing optional
// file is not an error and reports loaded=false.
func loadFile(cfg *Config, path string, mustExist bool) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return false, nil
		}

		return false, fmt.Errorf("%w: %s", ErrConfigFileRead, path)
	}

	overlaid, err := parse(*cfg, data)
	if err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	err = validate(overlaid)
	if err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrConfigInvalid, path, err)
	}

	*cfg = overlaid

	return true, nil
}

// parse decodes JSONC data on top of base. Keys absent from data keep the
// base value; unknown keys are rejected.
func parse(base Config, data []byte) (Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSONC: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	cfg := base

	err = dec.Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("invalid JSON: %w", err)
	}

	cfg.Sources = base.Sources

	return cfg, nil
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.WikiAPI) == "" {
		return ErrWikiAPIEmpty
	}

	if strings.TrimSpace(cfg.RootPage) == "" {
		return ErrRootPageEmpty
	}

	if strings.TrimSpace(cfg.DefaultCategory) == "" {
		return ErrDefaultCategoryEmpty
	}

	switch cfg.Markup {
	case "mediawiki", "markdown":
	default:
		return fmt.Errorf("%w: got %q", ErrUnknownMarkup, cfg.Markup)
	}

	return nil
}

func absolute(workDir, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}

	return filepath.Join(workDir, dir)
}

// Format returns the config as indented JSON with the wiki password masked.
func Format(cfg Config) (string, error) {
	if cfg.WikiPassword != "" {
		cfg.WikiPassword = "********"
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to format config: %w", err)
	}

	return string(data), nil
}
