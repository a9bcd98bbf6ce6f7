// Package errors provides the error taxonomy shared by the subsidy tools.
//
// Every failure a tool can hit is a StandardError carrying one of the codes
// below. Tools never return these to the MCP host as faults; they render them
// into text and return them on the normal result path.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUpstreamTransportFailed ErrorCode = "UPSTREAM_TRANSPORT_FAILED"
	ErrCodeUpstreamStatus          ErrorCode = "UPSTREAM_STATUS_ERROR"
	ErrCodeUpstreamDecodeFailed    ErrorCode = "UPSTREAM_DECODE_FAILED"

	ErrCodeSubsidyNotFound ErrorCode = "SUBSIDY_NOT_FOUND"

	ErrCodeAttachmentCategoryNotFound ErrorCode = "ATTACHMENT_CATEGORY_NOT_FOUND"
	ErrCodeAttachmentIndexInvalid     ErrorCode = "ATTACHMENT_INDEX_INVALID"
	ErrCodeInvalidArguments           ErrorCode = "INVALID_ARGUMENTS"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// StatusCode returns the upstream HTTP status recorded on protocol errors, or 0.
func (e *StandardError) StatusCode() int {
	if e.Metadata == nil {
		return 0
	}
	if code, ok := e.Metadata["statusCode"].(int); ok {
		return code
	}
	return 0
}

// NewUpstreamTransportError wraps a connection-level failure talking to the remote API.
func NewUpstreamTransportError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamTransportFailed,
		Message:   "Upstream request failed",
		Details:   err.Error(),
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// NewUpstreamStatusError records a non-200 response from the remote API.
func NewUpstreamStatusError(endpoint string, statusCode int) *StandardError {
	return &StandardError{
		Code:    ErrCodeUpstreamStatus,
		Message: "Upstream returned non-success status",
		Details: fmt.Sprintf("status: %d", statusCode),
		Metadata: map[string]interface{}{
			"endpoint":   endpoint,
			"statusCode": statusCode,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamDecodeError records a body that is not the JSON the remote API promises.
func NewUpstreamDecodeError(endpoint string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamDecodeFailed,
		Message:   "Upstream response could not be decoded",
		Details:   err.Error(),
		Metadata:  map[string]interface{}{"endpoint": endpoint},
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

func NewSubsidyNotFoundError(subsidyID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubsidyNotFound,
		Message:   "Subsidy not found",
		Details:   fmt.Sprintf("subsidyId: %s", subsidyID),
		Metadata:  map[string]interface{}{"subsidyId": subsidyID},
		Timestamp: time.Now().UTC(),
	}
}

func NewAttachmentCategoryNotFoundError(category string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAttachmentCategoryNotFound,
		Message:   "Attachment category does not exist",
		Details:   fmt.Sprintf("category: %s", category),
		Metadata:  map[string]interface{}{"category": category},
		Timestamp: time.Now().UTC(),
	}
}

func NewAttachmentIndexInvalidError(index int64, length int) *StandardError {
	return &StandardError{
		Code:    ErrCodeAttachmentIndexInvalid,
		Message: "Attachment index out of range",
		Details: fmt.Sprintf("index: %d, length: %d", index, length),
		Metadata: map[string]interface{}{
			"index":  index,
			"length": length,
		},
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidArgumentsError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidArguments,
		Message:   "Invalid tool arguments",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Timestamp: time.Now().UTC(),
		Cause:     err,
	}
}

// CodeOf returns the code of the first StandardError in err's chain.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsDiagnostic reports whether the failure must be written to the operator log.
// Not-found and validation outcomes are answers, not faults.
func IsDiagnostic(code ErrorCode) bool {
	switch GetErrorCategory(code) {
	case "TRANSPORT", "PROTOCOL", "DECODE", "OTHER":
		return true
	default:
		return false
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TRANSPORT"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "STATUS"):
		return "PROTOCOL"
	case strings.Contains(codeStr, "DECODE"):
		return "DECODE"
	case strings.HasPrefix(codeStr, "ATTACHMENT"), strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	default:
		return "OTHER"
	}
}
