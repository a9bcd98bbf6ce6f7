package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client issues single-attempt requests against one base URL.
// Connections are closed after every response so no state outlives a call.
type Client struct {
	resty *resty.Client
}

// Response is the part of an HTTP exchange callers inspect.
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Request describes one GET.
type Request struct {
	Path        string
	PathParams  map[string]string
	QueryParams map[string]string
}

// NewClient builds a client with the given timeout; zero means no timeout.
func NewClient(baseURL string, timeout time.Duration, userAgent string) *Client {
	return newClient(resty.New().SetTimeout(timeout), baseURL, userAgent)
}

// NewClientWithHTTP wraps a caller-supplied *http.Client, keeping its transport.
func NewClientWithHTTP(baseURL string, hc *http.Client, userAgent string) *Client {
	return newClient(resty.NewWithClient(hc), baseURL, userAgent)
}

func newClient(r *resty.Client, baseURL, userAgent string) *Client {
	r.SetBaseURL(baseURL).
		SetCloseConnection(true).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if userAgent != "" {
		r.SetHeader("User-Agent", userAgent)
	}
	return &Client{resty: r}
}

// Get performs the request once. A non-nil error means no response was
// received; any HTTP status, success or not, is returned in Response.
func (c *Client) Get(ctx context.Context, req Request) (*Response, error) {
	r := c.resty.R().SetContext(ctx)
	if len(req.PathParams) > 0 {
		r.SetPathParams(req.PathParams)
	}
	if len(req.QueryParams) > 0 {
		r.SetQueryParams(req.QueryParams)
	}

	resp, err := r.Get(req.Path)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Duration:   resp.Time(),
	}, nil
}
