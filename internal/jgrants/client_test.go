package jgrants

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"jgrants-mcp/internal/common/errors"
	"jgrants-mcp/internal/common/observability"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// ==========================
// Test Helpers
// ==========================

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return NewClient(ClientOptions{
		BaseURL:   baseURL,
		Timeout:   2 * time.Second,
		UserAgent: "jgrants-mcp-test/0.0.0",
	})
}

func closedServerURL(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return "http://" + addr
}

// ==========================
// SearchSubsidies
// ==========================

func TestSearchSubsidies_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exp/v1/public/subsidies", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "IT導入", q.Get("keyword"))
		assert.Equal(t, "acceptance_end_datetime", q.Get("sort"))
		assert.Equal(t, "ASC", q.Get("order"))
		assert.Equal(t, "1", q.Get("acceptance"))
		assert.True(t, r.Close, "connection must not be reused")

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"metadata":{"resultset":{"count":2}},"result":[{"id":"a"},{"id":"b"}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL+"/exp/v1/public")
	result, err := client.SearchSubsidies(context.Background(), NewSubsidyQuery("IT導入"))

	require.NoError(t, err)
	assert.Equal(t, int64(2), result.ResultCount)
	doc, ok := result.Document.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"metadata", "result"}, doc.Keys())
}

func TestSearchSubsidies_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode errors.ErrorCode
	}{
		{"server error", http.StatusInternalServerError, `{}`, errors.ErrCodeUpstreamStatus},
		{"not found", http.StatusNotFound, ``, errors.ErrCodeUpstreamStatus},
		{"created is not success", http.StatusCreated, `{"result":[]}`, errors.ErrCodeUpstreamStatus},
		{"invalid body", http.StatusOK, `not json`, errors.ErrCodeUpstreamDecodeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(t, server.URL).SearchSubsidies(context.Background(), NewSubsidyQuery(DefaultKeyword))

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			if tt.wantCode == errors.ErrCodeUpstreamStatus {
				assert.Equal(t, tt.status, errors.Normalize(err).StatusCode())
			}
		})
	}
}

func TestSearchSubsidies_ConnectionRefused(t *testing.T) {
	client := newTestClient(t, closedServerURL(t))

	_, err := client.SearchSubsidies(context.Background(), NewSubsidyQuery(DefaultKeyword))

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUpstreamTransportFailed, errors.CodeOf(err))
	assert.NotNil(t, errors.Normalize(err).Cause)
}

// ==========================
// GetSubsidy
// ==========================

func TestGetSubsidy_Success(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/subsidies/id/a0W5h00000UaGzhEAF", r.URL.Path)
		w.Write([]byte(`{"metadata":{},"result":[{"id":"a0W5h00000UaGzhEAF","title":"テスト補助金"}]}`))
	}))
	defer server.Close()

	record, err := newTestClient(t, server.URL).GetSubsidy(context.Background(), "a0W5h00000UaGzhEAF")

	require.NoError(t, err)
	assert.Equal(t, "a0W5h00000UaGzhEAF", record.ID)
	assert.Equal(t, "テスト補助金", record.Extra["title"])
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetSubsidy_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"metadata":{},"result":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).GetSubsidy(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSubsidyNotFound))
}

func TestGetSubsidy_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, server.URL).GetSubsidy(ctx, "slow")

	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUpstreamTransportFailed, errors.CodeOf(err))
}

func TestClient_RecordsUpstreamMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	reader := metric.NewManualReader()
	client := NewClient(ClientOptions{
		BaseURL:       server.URL,
		Timeout:       time.Second,
		Observability: observability.NewWithReader("jgrants-test", reader),
	})

	_, err := client.GetSubsidy(context.Background(), "x")
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	found := false
	for _, m := range rm.ScopeMetrics[0].Metrics {
		if m.Name != "jgrants.requests" {
			continue
		}
		sum := m.Data.(metricdata.Sum[int64])
		require.Len(t, sum.DataPoints, 1)
		status, _ := sum.DataPoints[0].Attributes.Value("status")
		endpoint, _ := sum.DataPoints[0].Attributes.Value("endpoint")
		assert.Equal(t, "502", status.AsString())
		assert.Equal(t, EndpointSubsidyDetail, endpoint.AsString())
		found = true
	}
	assert.True(t, found)
}
