// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App         AppConfig             `mapstructure:"app"`
	Server      ServerConfig          `mapstructure:"server"`
	JGrants     JGrantsConfig         `mapstructure:"jgrants"`
	Attachments AttachmentsConfig     `mapstructure:"attachments"`
	Tools       map[string]ToolConfig `mapstructure:"tools"`
	Logging     LoggingConfig         `mapstructure:"logging"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig selects the MCP transport the host talks to.
type ServerConfig struct {
	Transport      string `mapstructure:"transport"` // stdio | http
	HTTPAddress    string `mapstructure:"http_address"`
	EndpointPath   string `mapstructure:"endpoint_path"`
	MetricsAddress string `mapstructure:"metrics_address"` // stdio mode only; empty disables
	RegistryPath   string `mapstructure:"registry_path"`
}

// JGrantsConfig points at the public subsidy API.
type JGrantsConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds, 0 disables
	UserAgent string `mapstructure:"user_agent"`
}

// AttachmentsConfig holds the locator prefix used for synthesized download URLs.
type AttachmentsConfig struct {
	DownloadBaseURL string `mapstructure:"download_base_url"`
}

// ToolConfig holds the settings applicable to every tool.
type ToolConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// UpstreamTimeout converts the configured milliseconds to a duration.
func (j JGrantsConfig) UpstreamTimeout() time.Duration {
	return GetDuration(j.Timeout)
}
