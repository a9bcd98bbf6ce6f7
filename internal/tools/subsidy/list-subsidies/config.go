package listsubsidies

import (
	"fmt"

	"jgrants-mcp/internal/jgrants"
)

type Config struct {
	Enabled        bool   `mapstructure:"enabled"`
	DefaultKeyword string `mapstructure:"default_keyword"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:        true,
		DefaultKeyword: jgrants.DefaultKeyword,
	}
}

func (c *Config) Validate() error {
	if c.DefaultKeyword == "" {
		return fmt.Errorf("default_keyword is required")
	}
	return nil
}
