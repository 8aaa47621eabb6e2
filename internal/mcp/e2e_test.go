package mcp_test

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mcpmail/internal/mcp"
)

func newMailServer(t *testing.T) string {
	t.Helper()

	s := server.NewMCPServer("mail-test", "1.0.0", server.WithToolCapabilities(false))

	s.AddTool(mcpgo.NewTool("list_accounts",
		mcpgo.WithDescription("List signed-in accounts"),
	), func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		return mcpgo.NewToolResultText(`[{"account_id":"abc123","username":"alice@example.com"}]`), nil
	})

	s.AddTool(mcpgo.NewTool("progress",
		mcpgo.WithDescription("Emits a notification before answering"),
	), func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		_ = server.ServerFromContext(ctx).SendNotificationToClient(ctx, "notifications/message",
			map[string]any{"level": "info", "data": "working"})
		return mcpgo.NewToolResultText(`{"done":true}`), nil
	})

	ts := server.NewTestStreamableHTTPServer(s)
	t.Cleanup(ts.Close)
	return ts.URL
}

func newE2EClient(t *testing.T, url string) *mcp.Client {
	t.Helper()

	cfg := mcp.DefaultConfig()
	cfg.ServerURL = url
	cfg.Timeout = 10 * time.Second

	c, err := mcp.NewClient(cfg, mcp.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestEndToEnd_StreamableHTTP(t *testing.T) {
	c := newE2EClient(t, newMailServer(t))
	ctx := context.Background()

	init, err := c.Initialize(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mail-test", init.ServerInfo.Name)
	assert.NotEmpty(t, c.SessionID())
	session := c.SessionID()

	tools, err := c.ListTools(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_accounts", "progress"}, names)

	result, err := c.CallToolResult(ctx, "list_accounts", nil)
	require.NoError(t, err)
	var accounts []struct {
		AccountID string `json:"account_id"`
		Username  string `json:"username"`
	}
	require.NoError(t, result.DecodeText(&accounts))
	require.Len(t, accounts, 1)
	assert.Equal(t, "abc123", accounts[0].AccountID)

	assert.Equal(t, session, c.SessionID())
}

func TestEndToEnd_EventStreamResponse(t *testing.T) {
	c := newE2EClient(t, newMailServer(t))
	ctx := context.Background()

	_, err := c.Initialize(ctx)
	require.NoError(t, err)

	// A notification upgrades the session to event-stream responses.
	result, err := c.CallToolResult(ctx, "progress", nil)
	require.NoError(t, err)
	var done struct{ Done bool }
	require.NoError(t, result.DecodeText(&done))
	assert.True(t, done.Done)

	result, err = c.CallToolResult(ctx, "list_accounts", nil)
	require.NoError(t, err)
	text, ok := result.Text()
	assert.True(t, ok)
	assert.True(t, strings.Contains(text, "abc123"))
}

func TestEndToEnd_MethodNotFound(t *testing.T) {
	c := newE2EClient(t, newMailServer(t))
	ctx := context.Background()

	_, err := c.Initialize(ctx)
	require.NoError(t, err)

	_, err = c.Call(ctx, "mail/unknown", nil)
	var rpcErr *mcp.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, mcpgo.METHOD_NOT_FOUND, rpcErr.Code)
}

func TestEndToEnd_WithoutSession(t *testing.T) {
	c := newE2EClient(t, newMailServer(t))

	_, err := c.ListTools(context.Background())
	var statusErr *mcp.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Empty(t, c.SessionID())
}
