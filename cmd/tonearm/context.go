package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"tonearm/internal/api"
	"tonearm/internal/config"
)

type commandContext struct {
	apiFlag    *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(apiFlag, configFlag *string) *commandContext {
	return &commandContext{
		apiFlag:    apiFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// apiAddr resolves the daemon address: the --api flag wins, then the
// configured bind, then the built-in default.
func (c *commandContext) apiAddr() string {
	if c.apiFlag != nil {
		if addr := strings.TrimSpace(*c.apiFlag); addr != "" {
			return addr
		}
	}
	if cfg := c.configValue(); cfg != nil {
		if bind := strings.TrimSpace(cfg.Paths.APIBind); bind != "" {
			return bind
		}
	}
	return config.Default().Paths.APIBind
}

func (c *commandContext) withClient(fn func(*api.Client) error) error {
	if _, err := c.ensureConfig(); err != nil {
		return err
	}
	return fn(api.NewClient(c.apiAddr()))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
