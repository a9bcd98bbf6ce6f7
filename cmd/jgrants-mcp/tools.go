package main

import (
	"fmt"

	"jgrants-mcp/internal/common/config"
	"jgrants-mcp/internal/common/errors"
	"jgrants-mcp/internal/common/logger"
	"jgrants-mcp/internal/jgrants"
	"jgrants-mcp/internal/server"
	downloadattachment "jgrants-mcp/internal/tools/subsidy/download-attachment"
	getsubsidydetail "jgrants-mcp/internal/tools/subsidy/get-subsidy-detail"
	listsubsidies "jgrants-mcp/internal/tools/subsidy/list-subsidies"
	"jgrants-mcp/pkg/registry"

	"github.com/spf13/cobra"
)

const toolCategory = "subsidy"

type toolMeta struct {
	displayName string
	errorCodes  []errors.ErrorCode
}

var upstreamCodes = []errors.ErrorCode{
	errors.ErrCodeUpstreamTransportFailed,
	errors.ErrCodeUpstreamStatus,
	errors.ErrCodeUpstreamDecodeFailed,
	errors.ErrCodeInvalidArguments,
}

var toolCatalog = map[string]toolMeta{
	listsubsidies.ToolName: {
		displayName: "List Subsidies",
		errorCodes:  upstreamCodes,
	},
	getsubsidydetail.ToolName: {
		displayName: "Get Subsidy Detail",
		errorCodes:  append(append([]errors.ErrorCode{}, upstreamCodes...), errors.ErrCodeSubsidyNotFound),
	},
	downloadattachment.ToolName: {
		displayName: "Download Attachment",
		errorCodes: append(append([]errors.ErrorCode{}, upstreamCodes...),
			errors.ErrCodeSubsidyNotFound,
			errors.ErrCodeAttachmentCategoryNotFound,
			errors.ErrCodeAttachmentIndexInvalid,
		),
	},
}

var (
	toolsOutput  string
	validatePath string
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool registry as JSON",
	RunE:  runTools,
}

var toolsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a tool registry file",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(validatePath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return fmt.Errorf("registry validation failed: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d tools.\n", len(reg.Tools))
		return nil
	},
}

func init() {
	toolsCmd.Flags().StringVarP(&toolsOutput, "output", "o", "", "write the registry to this file instead of stdout")
	toolsValidateCmd.Flags().StringVar(&validatePath, "path", "configs/tool-registry.json", "path to registry file")
	toolsCmd.AddCommand(toolsValidateCmd)
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	client := jgrants.NewClient(jgrants.ClientOptions{BaseURL: cfg.JGrants.BaseURL})
	tools, err := buildTools(cfg, client, logger.NewNoOpLogger(), nil)
	if err != nil {
		return err
	}

	reg, err := buildRegistry(cfg.App.Version, tools)
	if err != nil {
		return err
	}

	if toolsOutput != "" {
		if err := reg.Save(toolsOutput); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d tools to %s\n", len(reg.Tools), toolsOutput)
		return nil
	}
	return reg.Write(cmd.OutOrStdout())
}

// buildTools constructs every tool handler. Descriptions found in catalog
// replace the built-in ones.
func buildTools(cfg *config.Config, client *jgrants.Client, log logger.Logger, catalog *registry.ToolRegistry) ([]server.Tool, error) {
	list, err := listsubsidies.NewHandler(listsubsidies.HandlerOptions{
		AppConfig:   cfg,
		Client:      client,
		Logger:      log,
		Description: catalog.Description(listsubsidies.ToolName),
	})
	if err != nil {
		return nil, err
	}

	detail, err := getsubsidydetail.NewHandler(getsubsidydetail.HandlerOptions{
		AppConfig:   cfg,
		Client:      client,
		Logger:      log,
		Description: catalog.Description(getsubsidydetail.ToolName),
	})
	if err != nil {
		return nil, err
	}

	download, err := downloadattachment.NewHandler(downloadattachment.HandlerOptions{
		AppConfig:   cfg,
		Client:      client,
		Logger:      log,
		Description: catalog.Description(downloadattachment.ToolName),
	})
	if err != nil {
		return nil, err
	}

	return []server.Tool{list, detail, download}, nil
}

func buildRegistry(version string, tools []server.Tool) (*registry.ToolRegistry, error) {
	entries := make([]registry.ToolEntry, 0, len(tools))
	for _, tool := range tools {
		meta := toolCatalog[tool.GetToolName()]

		codes := make([]string, 0, len(meta.errorCodes))
		for _, code := range meta.errorCodes {
			codes = append(codes, string(code))
		}

		entry, err := registry.EntryFromTool(tool.Definition(), meta.displayName, toolCategory, codes)
		if err != nil {
			return nil, err
		}
		entry.Version = version
		entries = append(entries, entry)
	}

	reg := registry.New(version, entries...)
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}
