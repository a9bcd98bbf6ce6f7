package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"jgrants-mcp/internal/common/config"
	"jgrants-mcp/internal/common/logger"
	"jgrants-mcp/internal/common/observability"
	"jgrants-mcp/internal/jgrants"
	"jgrants-mcp/internal/server"
	"jgrants-mcp/pkg/registry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	transportFlag string
	addrFlag      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the subsidy tools over stdio or streamable HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&transportFlag, "transport", "", "transport to serve: stdio or http (overrides server.transport)")
	serveCmd.Flags().StringVar(&addrFlag, "addr", "", "listen address for the http transport (overrides server.http_address)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	if transportFlag != "" {
		cfg.Server.Transport = strings.ToLower(transportFlag)
	}
	if addrFlag != "" {
		cfg.Server.HTTPAddress = addrFlag
	}
	if cfg.Server.Transport != config.TransportStdio && cfg.Server.Transport != config.TransportHTTP {
		return fmt.Errorf("unknown transport %q", cfg.Server.Transport)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting jGrants MCP server",
		zap.String("version", cfg.App.Version),
		zap.String("transport", cfg.Server.Transport),
		zap.String("apiBase", cfg.JGrants.BaseURL),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	var catalog *registry.ToolRegistry
	if path := cfg.Server.RegistryPath; path != "" {
		catalog, err = registry.LoadRegistry(path)
		if err != nil {
			return fmt.Errorf("tool registry load failed: %w", err)
		}
		zapLog.Info("Loaded tool registry", zap.String("path", path), zap.Int("tools", len(catalog.Tools)))
	}

	client := jgrants.NewClient(jgrants.ClientOptions{
		BaseURL:       cfg.JGrants.BaseURL,
		Timeout:       cfg.JGrants.UpstreamTimeout(),
		UserAgent:     cfg.JGrants.UserAgent,
		Observability: obs,
	})

	tools, err := buildTools(cfg, client, log, catalog)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Options{
		Config:   cfg,
		Logger:   log,
		ErrorLog: zap.NewStdLog(zapLog),
		Tools:    tools,
	})
	if err != nil {
		return fmt.Errorf("server init failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.Transport == config.TransportHTTP {
		err = srv.ServeHTTP(ctx)
	} else {
		err = srv.ServeStdio(ctx, os.Stdin, os.Stdout)
	}
	if err != nil {
		zapLog.Error("Server stopped with error", zap.Error(err))
		return err
	}

	zapLog.Info("Shutdown complete")
	return nil
}
