package config

import (
	"errors"
	"fmt"

	"mixdown/internal/mix"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExport(); err != nil {
		return err
	}
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	if c.Paths.StagingDir == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	return nil
}

func (c *Config) validateExport() error {
	if c.Export.CrossfadeSeconds < 0 || c.Export.CrossfadeSeconds > mix.MaxCrossfadeSeconds {
		return fmt.Errorf("export.crossfade_seconds must be between 0 and %d", mix.MaxCrossfadeSeconds)
	}
	format, err := mix.ParseFormat(c.Export.Format)
	if err != nil {
		return fmt.Errorf("export.format: %w", err)
	}
	if format == mix.FormatMP3 || c.Export.MP3BitrateKbps != 0 {
		valid := false
		for _, tier := range mix.MP3BitrateTiers {
			if c.Export.MP3BitrateKbps == tier {
				valid = true
			}
		}
		if !valid {
			return fmt.Errorf("export.mp3_bitrate_kbps must be one of %v", mix.MP3BitrateTiers)
		}
	}
	if c.Export.TargetLoudness < -70 || c.Export.TargetLoudness > -5 {
		return errors.New("export.target_loudness_lufs must be between -70 and -5")
	}
	if c.Export.TruePeak < -9 || c.Export.TruePeak > 0 {
		return errors.New("export.true_peak_db must be between -9 and 0")
	}
	if c.Export.LoudnessRange < 1 || c.Export.LoudnessRange > 50 {
		return errors.New("export.loudness_range_lu must be between 1 and 50")
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.Workers < 1 {
		return errors.New("analysis.workers must be at least 1")
	}
	if c.Analysis.EnergyPoints < 1 {
		return errors.New("analysis.energy_points must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
