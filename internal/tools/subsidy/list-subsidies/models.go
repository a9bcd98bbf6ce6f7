package listsubsidies

import (
	"context"

	"jgrants-mcp/internal/jgrants"
)

type Input struct {
	Keyword string `json:"keyword"`
}

type Output struct {
	Text        string `json:"text"`
	ResultCount int64  `json:"resultCount"`
}

// SubsidySearcher is the part of the jGrants client this tool needs.
type SubsidySearcher interface {
	SearchSubsidies(ctx context.Context, q jgrants.SubsidyQuery) (*jgrants.SearchResult, error)
}
