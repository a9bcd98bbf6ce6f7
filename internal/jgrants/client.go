// internal/jgrants/client.go
package jgrants

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"jgrants-mcp/internal/common/errors"
	commonhttp "jgrants-mcp/internal/common/http"
	"jgrants-mcp/internal/common/observability"
)

const (
	EndpointSubsidies     = "subsidies"
	EndpointSubsidyDetail = "subsidy_detail"

	listPath   = "/subsidies"
	detailPath = "/subsidies/id/{id}"
)

// Client talks to the jGrants public API. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	http *commonhttp.Client
	obs  *observability.Observability
}

type ClientOptions struct {
	BaseURL       string
	Timeout       time.Duration
	UserAgent     string
	HTTPClient    *http.Client
	Observability *observability.Observability
}

func NewClient(opts ClientOptions) *Client {
	var hc *commonhttp.Client
	if opts.HTTPClient != nil {
		hc = commonhttp.NewClientWithHTTP(opts.BaseURL, opts.HTTPClient, opts.UserAgent)
	} else {
		hc = commonhttp.NewClient(opts.BaseURL, opts.Timeout, opts.UserAgent)
	}
	return &Client{http: hc, obs: opts.Observability}
}

// SearchResult is a decoded listing response.
type SearchResult struct {
	Document    interface{}
	ResultCount int64
}

// SearchSubsidies runs the listing query. Errors are *errors.StandardError
// with a transport, status or decode code.
func (c *Client) SearchSubsidies(ctx context.Context, q SubsidyQuery) (*SearchResult, error) {
	body, err := c.get(ctx, EndpointSubsidies, commonhttp.Request{
		Path:        listPath,
		QueryParams: q.Params(),
	})
	if err != nil {
		return nil, err
	}

	doc, err := decodeDocument(body)
	if err != nil {
		return nil, errors.NewUpstreamDecodeError(EndpointSubsidies, err)
	}

	return &SearchResult{Document: doc, ResultCount: resultCount(body)}, nil
}

// GetSubsidy fetches the detail record for subsidyID. An empty result yields
// a SUBSIDY_NOT_FOUND error.
func (c *Client) GetSubsidy(ctx context.Context, subsidyID string) (*Record, error) {
	body, err := c.get(ctx, EndpointSubsidyDetail, commonhttp.Request{
		Path:       detailPath,
		PathParams: map[string]string{"id": subsidyID},
	})
	if err != nil {
		return nil, err
	}

	record, err := decodeFirstRecord(body)
	if err != nil {
		return nil, errors.NewUpstreamDecodeError(EndpointSubsidyDetail, err)
	}
	if record == nil {
		return nil, errors.NewSubsidyNotFoundError(subsidyID)
	}
	return record, nil
}

func (c *Client) get(ctx context.Context, endpoint string, req commonhttp.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Get(ctx, req)
	if err != nil {
		c.obs.RecordUpstreamRequest(ctx, endpoint, "transport_error", time.Since(start))
		return nil, errors.NewUpstreamTransportError(endpoint, err)
	}
	c.obs.RecordUpstreamRequest(ctx, endpoint, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewUpstreamStatusError(endpoint, resp.StatusCode)
	}
	return resp.Body, nil
}
