package main

import (
	"strings"

	"shuttle/internal/config"
)

// commandContext lazily loads configuration and resolves the daemon address
// so each command shares one source of truth for flags.
type commandContext struct {
	addrFlag   *string
	configFlag *string

	cfg        *config.Config
	configPath string
}

func newCommandContext(addrFlag, configFlag *string) *commandContext {
	return &commandContext{
		addrFlag:   addrFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = strings.TrimSpace(*c.configFlag)
	}
	cfg, resolvedPath, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	c.configPath = resolvedPath
	return cfg, nil
}

// apiAddr resolves the daemon address: the --addr flag wins, then the
// configured bind address.
func (c *commandContext) apiAddr() string {
	if c.addrFlag != nil {
		if addr := strings.TrimSpace(*c.addrFlag); addr != "" {
			return addr
		}
	}
	if c.cfg != nil {
		return c.cfg.Paths.APIBind
	}
	return ""
}

func (c *commandContext) client() *apiClient {
	return newAPIClient(c.apiAddr())
}
