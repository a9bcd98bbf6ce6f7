// internal/tools/subsidy/download-attachment/handler.go
package downloadattachment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"jgrants-mcp/internal/common/config"
	"jgrants-mcp/internal/common/errors"
	"jgrants-mcp/internal/common/logger"
	"jgrants-mcp/internal/common/metrics"
	"jgrants-mcp/internal/common/validation"
	"jgrants-mcp/internal/jgrants"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cast"
)

const ToolName = "download_attachment"

const description = `指定した補助金の添付文書について、base64 のファイルデータは返さず、
代わりにダウンロード用 URL を返します。
※引数 subsidy_id には、必ず id を指定してください。`

type Handler struct {
	config      *Config
	logger      logger.Logger
	client      SubsidyFetcher
	description string
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Client       SubsidyFetcher
	Logger       logger.Logger
	Description  string
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	toolConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := toolConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", ToolName, err)
	}
	if opts.Client == nil {
		return nil, fmt.Errorf("jGrants client is required for %s", ToolName)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}

	desc := opts.Description
	if desc == "" {
		desc = description
	}

	return &Handler{
		config:      toolConfig,
		logger:      loggerInstance,
		client:      opts.Client,
		description: desc,
	}, nil
}

func (h *Handler) Definition() mcp.Tool {
	tool := mcp.NewTool(ToolName,
		mcp.WithDescription(h.description),
		mcp.WithString("subsidy_id",
			mcp.Required(),
			mcp.Description("補助金の id"),
		),
		// Advertised only. parseInput answers an unknown name with the
		// category message.
		mcp.WithString("category",
			mcp.Required(),
			mcp.Description("添付文書カテゴリ"),
			mcp.Enum(jgrants.CategoryNames()...),
		),
		mcp.WithNumber("index",
			mcp.Required(),
			mcp.Description("カテゴリ内の添付文書の位置（0 始まり）"),
		),
	)

	// mcp-go has no integer property option.
	if prop, ok := tool.InputSchema.Properties["index"].(map[string]interface{}); ok {
		prop["type"] = "integer"
	}
	return tool
}

func (h *Handler) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	startTime := time.Now()
	metrics.ToolCallsActive.WithLabelValues(ToolName).Inc()
	defer metrics.ToolCallsActive.WithLabelValues(ToolName).Dec()
	defer func() {
		metrics.ToolCallsCompleted.WithLabelValues(ToolName).Inc()
		metrics.ToolCallDuration.WithLabelValues(ToolName).Observe(time.Since(startTime).Seconds())
	}()

	log := h.logger.With(map[string]interface{}{
		"tool":   ToolName,
		"callId": uuid.NewString(),
	})

	input, err := h.parseInput(req.GetArguments())
	if err != nil {
		return h.failure(log, err), nil
	}

	log = log.With(map[string]interface{}{"subsidyId": input.SubsidyID})
	log.Debug("Processing attachment download request", map[string]interface{}{
		"category": input.Category.String(),
		"index":    input.Index,
	})

	output, err := h.Execute(ctx, input)
	if err != nil {
		return h.failure(log, err), nil
	}

	log.Debug("Attachment download URL resolved", map[string]interface{}{
		"url":        output.URL,
		"durationMs": time.Since(startTime).Milliseconds(),
	})

	return mcp.NewToolResultText(output.Text), nil
}

// parseInput checks argument shapes, then the category against the closed
// set. It is the only place a category name is interpreted.
func (h *Handler) parseInput(args map[string]interface{}) (*Input, error) {
	result := validation.ValidateInput(args, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewInvalidArgumentsError(strings.Join(result.GetErrorMessages(), "; "))
	}

	rawCategory := cast.ToString(args["category"])
	category, ok := jgrants.ParseCategory(rawCategory)
	if !ok {
		return nil, errors.NewAttachmentCategoryNotFoundError(rawCategory)
	}

	index, err := indexArg(args["index"])
	if err != nil {
		return nil, errors.NewInvalidArgumentsError(fmt.Sprintf("index: %v", err))
	}

	return &Input{
		SubsidyID: cast.ToString(args["subsidy_id"]),
		Category:  category,
		Index:     index,
	}, nil
}

// indexArg saturates integral values outside the int64 range so that they
// are reported as invalid positions.
func indexArg(v interface{}) (int64, error) {
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64, nil
	case f <= math.MinInt64:
		return math.MinInt64, nil
	default:
		return int64(f), nil
	}
}

// Execute re-fetches the record and resolves the attachment position to the
// same URL the detail tool assigns.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	record, err := h.client.GetSubsidy(ctx, input.SubsidyID)
	if err != nil {
		return nil, err
	}

	attachments, present := record.AttachmentsOf(input.Category)
	if !present || len(attachments) == 0 {
		return nil, errors.NewAttachmentCategoryNotFoundError(input.Category.String())
	}
	if input.Index < 0 || input.Index >= int64(len(attachments)) {
		return nil, errors.NewAttachmentIndexInvalidError(input.Index, len(attachments))
	}

	url := jgrants.DownloadURL(h.config.DownloadBaseURL, record.LocatorID(input.SubsidyID), input.Category, int(input.Index))

	return &Output{
		URL:  url,
		Text: fmt.Sprintf("Attachment download URL: %s", url),
	}, nil
}

func (h *Handler) failure(log logger.Logger, err error) *mcp.CallToolResult {
	stdErr := errors.Normalize(err)
	metrics.ToolCallsFailed.WithLabelValues(ToolName, errors.GetErrorCategory(stdErr.Code)).Inc()

	fields := map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"error":     stdErr.Details,
	}
	if status := stdErr.StatusCode(); status != 0 {
		fields["statusCode"] = status
	}

	if errors.IsDiagnostic(stdErr.Code) {
		log.Error("Attachment download request failed", fields)
	} else {
		log.Info("Attachment download request rejected", fields)
	}

	return mcp.NewToolResultText(jgrants.ErrorText(stdErr, jgrants.SubjectSubsidyDetail))
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		cfg.Enabled = config.IsToolEnabled(appConfig, ToolName)
		if appConfig.Attachments.DownloadBaseURL != "" {
			cfg.DownloadBaseURL = appConfig.Attachments.DownloadBaseURL
		}
	}
	return cfg
}

func (h *Handler) GetToolName() string {
	return ToolName
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}
