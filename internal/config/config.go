// Package config loads stockroom settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stockroom/internal/loader"
)

// Config holds the settings for one stockroom process.
type Config struct {
	// DataFile is the inventory file path.
	DataFile string `yaml:"data_file"`

	// BackupSuffix names the quarantine copy of an unrecognized file.
	BackupSuffix string `yaml:"backup_suffix"`

	// Journal is the operation journal database path. Empty disables it.
	Journal string `yaml:"journal"`

	Log LogConfig `yaml:"log"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// ValidLogFormats lists the accepted log.format values.
var ValidLogFormats = []string{"text", "json"}

// ValidLogLevels lists the accepted log.level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DataFile:     "inventory.csv",
		BackupSuffix: loader.DefaultBackupSuffix,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Unknown keys are rejected so typos do not silently fall back to defaults.
// Relative data_file and journal paths are resolved against the directory
// holding the config file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	cfg.DataFile = resolve(base, cfg.DataFile)
	cfg.Journal = resolve(base, cfg.Journal)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every setting is usable.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataFile) == "" {
		return errors.New("data_file is required")
	}
	if c.BackupSuffix == "" {
		return errors.New("backup_suffix must not be empty")
	}
	if strings.ContainsRune(c.BackupSuffix, filepath.Separator) {
		return fmt.Errorf("backup_suffix %q must not contain a path separator", c.BackupSuffix)
	}
	if c.Journal != "" && filepath.Clean(c.Journal) == filepath.Clean(c.DataFile) {
		return errors.New("journal must not be the data file")
	}
	if !slices.Contains(ValidLogLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("invalid log.level %q: must be one of %v", c.Log.Level, ValidLogLevels)
	}
	if !slices.Contains(ValidLogFormats, c.Log.Format) {
		return fmt.Errorf("invalid log.format %q: must be one of %v", c.Log.Format, ValidLogFormats)
	}
	return nil
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
