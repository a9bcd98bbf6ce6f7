package main

import (
	"fmt"
	"os"

	"jgrants-mcp/internal/common/config"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "jgrants-mcp",
	Short: "MCP server for the jGrants subsidy API",
	Long: `jgrants-mcp exposes the jGrants public subsidy API as MCP tools:
list_subsidies, get_subsidy_detail and download_attachment.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (default: ./configs/config.yaml or ./config.yaml)")
}

// Execute runs the root command. Errors go to stderr; stdout may be the
// MCP transport.
func Execute() {
	rootCmd.SetErr(os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}
