// internal/common/config/loader.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "JGRANTS"

// Defaults reproduce the stock behaviour of the server when no file or
// environment is present.
var defaults = map[string]interface{}{
	"app.name":                      "jgrants-mcp-server",
	"app.version":                   "1.0.0",
	"server.transport":              TransportStdio,
	"server.http_address":           ":8080",
	"server.endpoint_path":          "/mcp",
	"server.metrics_address":        "",
	"server.registry_path":          "",
	"jgrants.base_url":              "https://api.jgrants-portal.go.jp/exp/v1/public",
	"jgrants.timeout":               30000,
	"jgrants.user_agent":            "",
	"attachments.download_base_url": "https://your-mcp-server.example.com",
	"logging.level":                 "info",
	"logging.format":                "json",
	"logging.output":                "stderr",
}

// Load reads configs/config.yaml (or ./config.yaml) when present and
// overlays JGRANTS_* environment variables.
func Load() (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func newViper() *viper.Viper {
	v := defaultViper()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func finish(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found walking up to the module root.
// It must stay silent: stdout belongs to the stdio transport.
func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders left in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// applyDefaults fills values that depend on other fields.
func applyDefaults(cfg *Config) {
	if cfg.JGrants.UserAgent == "" {
		cfg.JGrants.UserAgent = fmt.Sprintf("%s/%s", cfg.App.Name, cfg.App.Version)
	}
	cfg.Server.Transport = strings.ToLower(strings.TrimSpace(cfg.Server.Transport))
	if cfg.Server.EndpointPath != "" && !strings.HasPrefix(cfg.Server.EndpointPath, "/") {
		cfg.Server.EndpointPath = "/" + cfg.Server.EndpointPath
	}
	cfg.JGrants.BaseURL = strings.TrimRight(cfg.JGrants.BaseURL, "/")
	cfg.Attachments.DownloadBaseURL = strings.TrimRight(cfg.Attachments.DownloadBaseURL, "/")

	if cfg.Tools == nil {
		cfg.Tools = map[string]ToolConfig{}
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("server.transport must be %q or %q, got %q", TransportStdio, TransportHTTP, cfg.Server.Transport)
	}

	if cfg.Server.Transport == TransportHTTP && cfg.Server.HTTPAddress == "" {
		return fmt.Errorf("server.http_address is required for the http transport")
	}

	if err := validateHTTPURL("jgrants.base_url", cfg.JGrants.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("attachments.download_base_url", cfg.Attachments.DownloadBaseURL); err != nil {
		return err
	}

	if cfg.JGrants.Timeout < 0 {
		return fmt.Errorf("jgrants.timeout must not be negative")
	}

	return nil
}

func validateHTTPURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

func defaultViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// Default returns the configuration used when nothing is configured.
// Environment variables are not consulted.
func Default() *Config {
	cfg, err := finish(defaultViper())
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

// IsToolEnabled checks if a specific tool is enabled
func IsToolEnabled(cfg *Config, toolName string) bool {
	if tool, exists := cfg.Tools[toolName]; exists {
		return tool.Enabled
	}
	return true
}
