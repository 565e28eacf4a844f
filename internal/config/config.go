// Package config handles meshc configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshc/pkg/formats"
	"github.com/Faultbox/meshc/pkg/geometry"
)

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Atlas   AtlasConfig   `yaml:"atlas"`
	Source  SourceConfig  `yaml:"source"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig controls what the writer produces.
type ExportConfig struct {
	Profile     formats.Profile `yaml:"profile"`
	OutputDir   string          `yaml:"output_dir"`
	WriteReport bool            `yaml:"write_report"` // <mesh>.colors.yaml for color-sampling profiles
	// ReflectionColor overrides the per-mesh reflection_color attribute.
	ReflectionColor *[3]float64 `yaml:"reflection_color,omitempty"`
}

// AtlasConfig locates the palette texture.
type AtlasConfig struct {
	Name        string   `yaml:"name"`
	SearchPaths []string `yaml:"search_paths"`
}

// SourceConfig describes input files.
type SourceConfig struct {
	NameEncoding string `yaml:"name_encoding"` // charset of OBJ object names
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			Profile:   formats.ProfileBasic,
			OutputDir: ".",
		},
		Atlas: AtlasConfig{
			Name:        "palette.png",
			SearchPaths: []string{"."},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports settings that cannot be exported with.
func (c *Config) Validate() error {
	if !c.Export.Profile.Valid() {
		return fmt.Errorf("export.profile: %w", formats.ErrUnknownProfile)
	}
	if c.Export.OutputDir == "" {
		return errors.New("export.output_dir is empty")
	}
	if c.Export.Profile.Layout().SampleColors && c.Atlas.Name == "" {
		return fmt.Errorf("profile %s samples colors but atlas.name is empty", c.Export.Profile)
	}
	return nil
}

// ReflectionOverride returns the configured reflection color, or nil when
// meshes should use their own attribute.
func (c *Config) ReflectionOverride() *geometry.Color {
	rc := c.Export.ReflectionColor
	if rc == nil {
		return nil
	}
	return &geometry.Color{R: rc[0], G: rc[1], B: rc[2]}
}
