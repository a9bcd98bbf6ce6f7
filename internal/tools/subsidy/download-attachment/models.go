package downloadattachment

import (
	"context"

	"jgrants-mcp/internal/jgrants"
)

type Input struct {
	SubsidyID string           `json:"subsidy_id"`
	Category  jgrants.Category `json:"category"`
	Index     int64            `json:"index"`
}

type Output struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// SubsidyFetcher is the part of the jGrants client this tool needs.
type SubsidyFetcher interface {
	GetSubsidy(ctx context.Context, subsidyID string) (*jgrants.Record, error)
}
