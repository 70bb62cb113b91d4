package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateRadarr(); err != nil {
		return err
	}
	if err := c.validateConvert(); err != nil {
		return err
	}
	if err := c.validateVerify(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.FastRoot == "" {
		return errors.New("paths.fast_root must be set")
	}
	if c.Paths.SlowRoot == "" {
		return errors.New("paths.slow_root must be set")
	}
	if c.Paths.FastRoot == c.Paths.SlowRoot {
		return errors.New("paths.fast_root and paths.slow_root must differ")
	}
	return nil
}

func (c *Config) validateRadarr() error {
	if c.Radarr.Host == "" {
		return errors.New("radarr.host must be set")
	}
	if c.Radarr.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/shuttle/config.toml"
		}
		return fmt.Errorf("radarr.api_key is required. Set RADARR_API_KEY env var or edit %s (create with 'shuttle config init')", defaultPath)
	}
	if c.Radarr.Port <= 0 || c.Radarr.Port > 65535 {
		return fmt.Errorf("radarr.port %d is out of range", c.Radarr.Port)
	}
	return nil
}

func (c *Config) validateConvert() error {
	if c.Convert.SourceCodec == c.Convert.TargetCodec {
		return errors.New("convert.source_codec and convert.target_codec must differ")
	}
	if c.Convert.CompressionLevel > 12 {
		return fmt.Errorf("convert.compression_level %d is out of range (0-12)", c.Convert.CompressionLevel)
	}
	return nil
}

func (c *Config) validateVerify() error {
	if c.Verify.Enabled && c.Verify.Root == "" {
		return errors.New("verify.root must be set when verify.enabled is true")
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
