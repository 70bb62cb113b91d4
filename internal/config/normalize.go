package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeRadarr()
	c.normalizeTools()
	c.normalizeConvert()
	c.normalizeWorkflow()
	if err := c.normalizeVerify(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.FastRoot, err = expandPath(c.Paths.FastRoot); err != nil {
		return fmt.Errorf("paths.fast_root: %w", err)
	}
	if c.Paths.SlowRoot, err = expandPath(c.Paths.SlowRoot); err != nil {
		return fmt.Errorf("paths.slow_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TempDir) == "" {
		c.Paths.TempDir = defaultTempDir
	}
	if c.Paths.TempDir, err = expandPath(c.Paths.TempDir); err != nil {
		return fmt.Errorf("paths.temp_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeRadarr() {
	c.Radarr.Host = strings.TrimSpace(c.Radarr.Host)
	c.Radarr.APIKey = strings.TrimSpace(c.Radarr.APIKey)
	if c.Radarr.APIKey == "" {
		if env, ok := os.LookupEnv("RADARR_API_KEY"); ok {
			c.Radarr.APIKey = strings.TrimSpace(env)
		}
	}
	if c.Radarr.Port <= 0 {
		c.Radarr.Port = defaultRadarrPort
	}
	if c.Radarr.RequestTimeout <= 0 {
		c.Radarr.RequestTimeout = defaultRadarrTimeout
	}
}

func (c *Config) normalizeTools() {
	defaults := Default().Tools
	if strings.TrimSpace(c.Tools.Rsync) == "" {
		c.Tools.Rsync = defaults.Rsync
	}
	if strings.TrimSpace(c.Tools.FFmpeg) == "" {
		c.Tools.FFmpeg = defaults.FFmpeg
	}
	if strings.TrimSpace(c.Tools.FFprobe) == "" {
		c.Tools.FFprobe = defaults.FFprobe
	}
	if strings.TrimSpace(c.Tools.MKVMerge) == "" {
		c.Tools.MKVMerge = defaults.MKVMerge
	}
	if strings.TrimSpace(c.Tools.Ionice) == "" {
		c.Tools.Ionice = defaults.Ionice
	}
	if strings.TrimSpace(c.Tools.Nice) == "" {
		c.Tools.Nice = defaults.Nice
	}
}

func (c *Config) normalizeConvert() {
	defaults := Default().Convert
	c.Convert.SourceCodec = strings.ToLower(strings.TrimSpace(c.Convert.SourceCodec))
	if c.Convert.SourceCodec == "" {
		c.Convert.SourceCodec = defaults.SourceCodec
	}
	c.Convert.SourceLayout = strings.TrimSpace(c.Convert.SourceLayout)
	if c.Convert.SourceLayout == "" {
		c.Convert.SourceLayout = defaults.SourceLayout
	}
	c.Convert.TargetCodec = strings.ToLower(strings.TrimSpace(c.Convert.TargetCodec))
	if c.Convert.TargetCodec == "" {
		c.Convert.TargetCodec = defaults.TargetCodec
	}
	c.Convert.TargetLayout = strings.TrimSpace(c.Convert.TargetLayout)
	if c.Convert.TargetLayout == "" {
		c.Convert.TargetLayout = defaults.TargetLayout
	}
	if c.Convert.CompressionLevel <= 0 {
		c.Convert.CompressionLevel = defaults.CompressionLevel
	}
	if strings.TrimSpace(c.Convert.TrackTitle) == "" {
		c.Convert.TrackTitle = defaults.TrackTitle
	}
	if strings.TrimSpace(c.Convert.TrackLanguage) == "" {
		c.Convert.TrackLanguage = defaults.TrackLanguage
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.HistoryLimit <= 0 {
		c.Workflow.HistoryLimit = defaultHistoryLimit
	}
}

func (c *Config) normalizeVerify() error {
	if strings.TrimSpace(c.Verify.Root) == "" {
		return nil
	}
	root, err := expandPath(c.Verify.Root)
	if err != nil {
		return fmt.Errorf("verify.root: %w", err)
	}
	c.Verify.Root = root
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
