// test/e2e/e2e_test.go
package e2e

import (
	"context"
	stdjson "encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"jgrants-mcp/internal/common/config"
	"jgrants-mcp/internal/common/logger"
	"jgrants-mcp/internal/jgrants"
	"jgrants-mcp/internal/server"
	downloadattachment "jgrants-mcp/internal/tools/subsidy/download-attachment"
	getsubsidydetail "jgrants-mcp/internal/tools/subsidy/get-subsidy-detail"
	listsubsidies "jgrants-mcp/internal/tools/subsidy/list-subsidies"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const subsidyID = "a0W5h00000UaGzhEAF"

const listBody = `{
  "metadata": {"type": "application/json", "resultset": {"count": 1}},
  "result": [
    {"id": "a0W5h00000UaGzhEAF", "name": "S-00000001", "title": "事業再構築補助金 <第12回>", "acceptance_end_datetime": "2025-01-10T18:00:00Z"}
  ]
}`

const detailBody = `{
  "metadata": {"type": "application/json", "resultset": {"count": 1}},
  "result": [{
    "id": "a0W5h00000UaGzhEAF",
    "title": "事業再構築補助金",
    "subsidy_max_limit": 15000000,
    "application_guidelines": [
      {"name": "公募要領.pdf", "data": "JVBERi0xLjQK"},
      {"name": "概要.pdf", "data": "JVBERi0xLjUK"}
    ],
    "outline_of_grant": [
      {"name": "交付規程.pdf", "data": "JVBERi0xLjYK"}
    ],
    "application_form": [
      {"name": "様式1.docx", "data": "UEsDBBQABgAI"}
    ]
  }]
}`

// ==========================
// Environment
// ==========================

type environment struct {
	logs   *observer.ObservedLogs
	client *mcpclient.Client
}

func fakeJGrants(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/subsidies":
			q := r.URL.Query()
			if q.Get("sort") != "acceptance_end_datetime" || q.Get("order") != "ASC" || q.Get("acceptance") != "1" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Write([]byte(listBody))
		case r.URL.Path == "/subsidies/id/"+subsidyID:
			w.Write([]byte(detailBody))
		case strings.HasPrefix(r.URL.Path, "/subsidies/id/"):
			w.Write([]byte(`{"metadata":{},"result":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

// startEnvironment serves all three tools over streamable HTTP against
// apiBase and returns an initialized MCP client.
func startEnvironment(t *testing.T, apiBase string) *environment {
	t.Helper()

	cfg := config.Default()
	cfg.Server.Transport = config.TransportHTTP
	cfg.JGrants.BaseURL = apiBase
	cfg.JGrants.Timeout = 5000
	cfg.Attachments.DownloadBaseURL = "https://files.example.org/jgrants"

	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewZapAdapter(zap.New(core))

	client := jgrants.NewClient(jgrants.ClientOptions{
		BaseURL:   cfg.JGrants.BaseURL,
		Timeout:   cfg.JGrants.UpstreamTimeout(),
		UserAgent: cfg.JGrants.UserAgent,
	})

	list, err := listsubsidies.NewHandler(listsubsidies.HandlerOptions{AppConfig: cfg, Client: client, Logger: log})
	require.NoError(t, err)
	detail, err := getsubsidydetail.NewHandler(getsubsidydetail.HandlerOptions{AppConfig: cfg, Client: client, Logger: log})
	require.NoError(t, err)
	download, err := downloadattachment.NewHandler(downloadattachment.HandlerOptions{AppConfig: cfg, Client: client, Logger: log})
	require.NoError(t, err)

	srv, err := server.New(server.Options{
		Config: cfg,
		Logger: log,
		Tools:  []server.Tool{list, detail, download},
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cli, err := mcpclient.NewStreamableHttpClient(ts.URL + cfg.Server.EndpointPath)
	require.NoError(t, err)
	require.NoError(t, cli.Start(ctx))
	t.Cleanup(func() { cli.Close() })

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "e2e", Version: "1.0.0"}
	_, err = cli.Initialize(ctx, initReq)
	require.NoError(t, err)

	return &environment{logs: logs, client: cli}
}

func (e *environment) call(t *testing.T, name string, args map[string]interface{}) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := e.client.CallTool(ctx, req)
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Len(t, res.Content, 1)

	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("unexpected content type %T", res.Content[0])
		return ""
	}
}

// ==========================
// Full Flow
// ==========================

func TestFullE2E(t *testing.T) {
	upstream, calls := fakeJGrants(t)
	env := startEnvironment(t, upstream.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t.Run("tools are listed", func(t *testing.T) {
		res, err := env.client.ListTools(ctx, mcp.ListToolsRequest{})
		require.NoError(t, err)

		names := make([]string, 0, len(res.Tools))
		for _, tool := range res.Tools {
			names = append(names, tool.Name)
		}
		assert.ElementsMatch(t, []string{"list_subsidies", "get_subsidy_detail", "download_attachment"}, names)
	})

	t.Run("search passes the body through", func(t *testing.T) {
		text := env.call(t, "list_subsidies", map[string]interface{}{"keyword": "事業再構築"})

		var doc map[string]interface{}
		require.NoError(t, stdjson.Unmarshal([]byte(text), &doc))
		assert.Contains(t, doc, "metadata")
		assert.Contains(t, doc, "result")
		assert.Contains(t, text, "事業再構築補助金 <第12回>")
		assert.Contains(t, text, "\n  \"metadata\"")
	})

	var urls map[string][]string
	t.Run("detail strips data and injects urls", func(t *testing.T) {
		text := env.call(t, "get_subsidy_detail", map[string]interface{}{"subsidy_id": subsidyID})
		assert.NotContains(t, text, `"data"`)

		var record map[string]interface{}
		require.NoError(t, stdjson.Unmarshal([]byte(text), &record))
		assert.EqualValues(t, 15000000, record["subsidy_max_limit"])

		urls = map[string][]string{}
		for _, c := range jgrants.Categories {
			items, _ := record[c.String()].([]interface{})
			for _, item := range items {
				urls[c.String()] = append(urls[c.String()], item.(map[string]interface{})["url"].(string))
			}
		}
		assert.Equal(t, []string{
			"https://files.example.org/jgrants/subsidies/a0W5h00000UaGzhEAF/application_guidelines/0",
			"https://files.example.org/jgrants/subsidies/a0W5h00000UaGzhEAF/application_guidelines/1",
		}, urls["application_guidelines"])
	})

	t.Run("resolve reproduces detail urls", func(t *testing.T) {
		for category, list := range urls {
			for i, want := range list {
				text := env.call(t, "download_attachment", map[string]interface{}{
					"subsidy_id": subsidyID,
					"category":   category,
					"index":      i,
				})
				assert.Equal(t, "Attachment download URL: "+want, text)
			}
		}
	})

	t.Run("resolve rejects out of range index", func(t *testing.T) {
		text := env.call(t, "download_attachment", map[string]interface{}{
			"subsidy_id": subsidyID,
			"category":   "application_guidelines",
			"index":      2,
		})
		assert.Equal(t, "添付文書のインデックス 2 は無効です。", text)
	})

	t.Run("unknown subsidy", func(t *testing.T) {
		text := env.call(t, "get_subsidy_detail", map[string]interface{}{"subsidy_id": "nope"})
		assert.Equal(t, "指定された補助金ID nope は見つかりませんでした。", text)
	})

	assert.Equal(t, 0, env.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
	assert.Greater(t, atomic.LoadInt32(calls), int32(0))
}

func TestE2E_UpstreamDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	env := startEnvironment(t, "http://"+addr)

	tests := []struct {
		tool   string
		args   map[string]interface{}
		prefix string
	}{
		{"list_subsidies", map[string]interface{}{}, "Error fetching subsidies list: "},
		{"get_subsidy_detail", map[string]interface{}{"subsidy_id": subsidyID}, "Error fetching subsidy detail: "},
		{"download_attachment", map[string]interface{}{"subsidy_id": subsidyID, "category": "application_form", "index": 0}, "Error fetching subsidy detail: "},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			before := env.logs.FilterLevelExact(zapcore.ErrorLevel).Len()

			text := env.call(t, tt.tool, tt.args)

			assert.True(t, strings.HasPrefix(text, tt.prefix), text)
			assert.Equal(t, before+1, env.logs.FilterLevelExact(zapcore.ErrorLevel).Len())
		})
	}
}
