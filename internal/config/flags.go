package config

import (
	"flag"

	"github.com/Faultbox/meshc/pkg/formats"
)

// Flags are the command-line overrides of a subcommand.
type Flags struct {
	config    *string
	profile   *string
	outputDir *string
	atlas     *string
	report    *bool
	debug     *bool
}

// RegisterFlags defines the config override flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		config:    fs.String("config", "", "Path to config file"),
		profile:   fs.String("profile", "", "Output profile (see `meshc profiles`)"),
		outputDir: fs.String("out", "", "Output directory"),
		atlas:     fs.String("atlas", "", "Palette atlas image name or path"),
		report:    fs.Bool("report", false, "Write a color report for color-sampling profiles"),
		debug:     fs.Bool("debug", false, "Enable debug logging"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// apply applies flag overrides to the config.
func (f *Flags) apply(cfg *Config) error {
	if f == nil {
		return nil
	}
	if *f.profile != "" {
		p, err := formats.ParseProfile(*f.profile)
		if err != nil {
			return err
		}
		cfg.Export.Profile = p
	}
	if *f.outputDir != "" {
		cfg.Export.OutputDir = *f.outputDir
	}
	if *f.atlas != "" {
		cfg.Atlas.Name = *f.atlas
	}
	if *f.report {
		cfg.Export.WriteReport = true
	}
	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	return nil
}
