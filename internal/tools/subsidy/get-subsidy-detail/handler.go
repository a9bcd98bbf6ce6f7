// internal/tools/subsidy/get-subsidy-detail/handler.go
package getsubsidydetail

import (
	"context"
	"fmt"
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

const ToolName = "get_subsidy_detail"

const description = `指定した補助金の詳細情報を取得します。
※引数 subsidy_id には、補助金の title ではなく id を指定してください。

result 配列の最初の要素について、添付文書（application_guidelines、outline_of_grant、application_form）の
base64 データを除去し、各添付文書に補助金の id を利用したダウンロード用 URL を付与して返します。`

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
	return mcp.NewTool(ToolName,
		mcp.WithDescription(h.description),
		mcp.WithString("subsidy_id",
			mcp.Required(),
			mcp.Description("補助金の id"),
		),
	)
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
	log.Debug("Processing subsidy detail request", nil)

	output, err := h.Execute(ctx, input)
	if err != nil {
		return h.failure(log, err), nil
	}

	log.Debug("Subsidy detail request completed", map[string]interface{}{
		"attachmentCount": output.AttachmentCount,
		"durationMs":      time.Since(startTime).Milliseconds(),
	})

	return mcp.NewToolResultText(output.Text), nil
}

func (h *Handler) parseInput(args map[string]interface{}) (*Input, error) {
	result := validation.ValidateInput(args, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewInvalidArgumentsError(strings.Join(result.GetErrorMessages(), "; "))
	}

	return &Input{SubsidyID: cast.ToString(args["subsidy_id"])}, nil
}

// Execute fetches the record, replaces attachment payloads with download
// URLs and renders the record.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	record, err := h.client.GetSubsidy(ctx, input.SubsidyID)
	if err != nil {
		return nil, err
	}

	record.AttachDownloadURLs(h.config.DownloadBaseURL, input.SubsidyID)

	text, err := jgrants.Render(record.ToObject())
	if err != nil {
		return nil, errors.NewUpstreamDecodeError(jgrants.EndpointSubsidyDetail, err)
	}

	count := 0
	for _, c := range jgrants.Categories {
		list, _ := record.AttachmentsOf(c)
		count += len(list)
	}

	return &Output{Text: text, AttachmentCount: count}, nil
}

func (h *Handler) failure(log logger.Logger, err error) *mcp.CallToolResult {
	stdErr := errors.Normalize(err)
	metrics.ToolCallsFailed.WithLabelValues(ToolName, errors.GetErrorCategory(stdErr.Code)).Inc()

	fields := map[string]interface{}{
		"errorCode": string(stdErr.Code),
	}
	if status := stdErr.StatusCode(); status != 0 {
		fields["statusCode"] = status
	}

	switch {
	case errors.IsDiagnostic(stdErr.Code):
		fields["error"] = stdErr.Details
		log.Error("Subsidy detail request failed", fields)
	case errors.IsCode(stdErr, errors.ErrCodeSubsidyNotFound):
		log.Info("Subsidy not found", fields)
	default:
		fields["error"] = stdErr.Details
		log.Info("Subsidy detail request rejected", fields)
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
