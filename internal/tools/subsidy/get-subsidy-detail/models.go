package getsubsidydetail

import (
	"context"

	"jgrants-mcp/internal/jgrants"
)

type Input struct {
	SubsidyID string `json:"subsidy_id"`
}

type Output struct {
	Text            string `json:"text"`
	AttachmentCount int    `json:"attachmentCount"`
}

// SubsidyFetcher is the part of the jGrants client this tool needs.
type SubsidyFetcher interface {
	GetSubsidy(ctx context.Context, subsidyID string) (*jgrants.Record, error)
}
