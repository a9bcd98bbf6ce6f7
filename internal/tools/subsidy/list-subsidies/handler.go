// internal/tools/subsidy/list-subsidies/handler.go
package listsubsidies

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

const ToolName = "list_subsidies"

const description = `指定したキーワードで公募中の補助金一覧を取得します。
・キーワード、締切日の昇順、応募受付中の条件で検索を行い、JSON形式の文字列として結果を返します。
・キーワードを入力できるようにしており、デフォルトは「補助金」です。`

type Handler struct {
	config      *Config
	logger      logger.Logger
	client      SubsidySearcher
	description string
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Client       SubsidySearcher
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

// Definition describes the tool to MCP clients.
func (h *Handler) Definition() mcp.Tool {
	return mcp.NewTool(ToolName,
		mcp.WithDescription(h.description),
		mcp.WithString("keyword",
			mcp.Description("検索キーワード"),
			mcp.DefaultString(h.config.DefaultKeyword),
		),
	)
}

// Handle never returns a Go error: every failure becomes text content.
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

	log.Debug("Processing list subsidies request", map[string]interface{}{
		"keyword": input.Keyword,
	})

	output, err := h.Execute(ctx, input)
	if err != nil {
		return h.failure(log, err), nil
	}

	log.Debug("List subsidies request completed", map[string]interface{}{
		"resultCount": output.ResultCount,
		"durationMs":  time.Since(startTime).Milliseconds(),
	})

	return mcp.NewToolResultText(output.Text), nil
}

func (h *Handler) parseInput(args map[string]interface{}) (*Input, error) {
	result := validation.ValidateInput(args, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewInvalidArgumentsError(strings.Join(result.GetErrorMessages(), "; "))
	}

	input := &Input{Keyword: h.config.DefaultKeyword}
	if raw, ok := args["keyword"]; ok {
		input.Keyword = cast.ToString(raw)
	}
	return input, nil
}

// Execute runs the search and renders the whole response body.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.client.SearchSubsidies(ctx, jgrants.NewSubsidyQuery(input.Keyword))
	if err != nil {
		return nil, err
	}

	text, err := jgrants.Render(result.Document)
	if err != nil {
		return nil, errors.NewUpstreamDecodeError(jgrants.EndpointSubsidies, err)
	}

	return &Output{Text: text, ResultCount: result.ResultCount}, nil
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
		log.Error("List subsidies request failed", fields)
	} else {
		log.Info("List subsidies request rejected", fields)
	}

	return mcp.NewToolResultText(jgrants.ErrorText(stdErr, jgrants.SubjectSubsidiesList))
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		cfg.Enabled = config.IsToolEnabled(appConfig, ToolName)
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
