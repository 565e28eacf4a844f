package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags. The file
// is taken from the -config flag, else from the standard locations. flags may
// be nil.
func Load(flags *Flags) (*Config, error) {
	cfg := Default()

	configPath := flags.ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	if err := flags.apply(cfg); err != nil {
		return nil, fmt.Errorf("applying flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// findConfigFile looks for meshc.yaml in the working directory, then in the
// user config directory.
func findConfigFile() string {
	candidates := []string{
		"./meshc.yaml",
		filepath.Join(ConfigDir(), "meshc.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "meshc")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "meshc")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "meshc")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "meshc")
	}
}

// loadFromFile merges a YAML file over the values already in cfg. Relative
// atlas search paths are resolved against the file's directory.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	defaults := cfg.Atlas.SearchPaths
	cfg.Atlas.SearchPaths = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg.Atlas.SearchPaths = defaults
		return err
	}
	if cfg.Atlas.SearchPaths == nil {
		cfg.Atlas.SearchPaths = defaults
		return nil
	}
	base := filepath.Dir(path)
	for i, p := range cfg.Atlas.SearchPaths {
		if !filepath.IsAbs(p) {
			cfg.Atlas.SearchPaths[i] = filepath.Join(base, p)
		}
	}
	return nil
}
