package getsubsidydetail

import (
	"fmt"
	"net/url"
)

type Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	DownloadBaseURL string `mapstructure:"download_base_url"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DownloadBaseURL: "https://your-mcp-server.example.com",
	}
}

func (c *Config) Validate() error {
	if c.DownloadBaseURL == "" {
		return fmt.Errorf("download_base_url is required")
	}
	u, err := url.Parse(c.DownloadBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("download_base_url must be an absolute URL")
	}
	return nil
}
