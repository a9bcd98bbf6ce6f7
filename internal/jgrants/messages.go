package jgrants

import (
	"fmt"

	"jgrants-mcp/internal/common/errors"

	"github.com/spf13/cast"
)

// Subjects name the request in transport and decode failure texts.
const (
	SubjectSubsidiesList = "subsidies list"
	SubjectSubsidyDetail = "subsidy detail"
)

// ErrorText is the text a tool returns for a failed call. subject names
// what was being fetched.
func ErrorText(stdErr *errors.StandardError, subject string) string {
	switch stdErr.Code {
	case errors.ErrCodeUpstreamTransportFailed:
		return fmt.Sprintf("Error fetching %s: %s", subject, causeOf(stdErr))
	case errors.ErrCodeUpstreamStatus:
		return fmt.Sprintf("Error: %d", stdErr.StatusCode())
	case errors.ErrCodeUpstreamDecodeFailed:
		return fmt.Sprintf("Error parsing %s: %s", subject, causeOf(stdErr))
	case errors.ErrCodeSubsidyNotFound:
		return fmt.Sprintf("指定された補助金ID %s は見つかりませんでした。", cast.ToString(stdErr.Metadata["subsidyId"]))
	case errors.ErrCodeAttachmentCategoryNotFound:
		return fmt.Sprintf("添付文書カテゴリ '%s' は存在しません。", cast.ToString(stdErr.Metadata["category"]))
	case errors.ErrCodeAttachmentIndexInvalid:
		return fmt.Sprintf("添付文書のインデックス %d は無効です。", cast.ToInt64(stdErr.Metadata["index"]))
	case errors.ErrCodeInvalidArguments:
		return fmt.Sprintf("Invalid arguments: %s", stdErr.Details)
	default:
		return fmt.Sprintf("Error: %s", stdErr.Message)
	}
}

func causeOf(stdErr *errors.StandardError) string {
	if stdErr.Cause != nil {
		return stdErr.Cause.Error()
	}
	return stdErr.Details
}
