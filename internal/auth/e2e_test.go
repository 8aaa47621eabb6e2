package auth_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mcpmail/internal/auth"
	"github.com/teemow/mcpmail/internal/mcp"
)

// flowCache contains characters a careless encoder would escape.
const flowCache = `{"device_code":"GAQABAAEAAAD<&>","interval":5,"scope":["Mail.Read"]}`

func newDeviceAuthServer(t *testing.T, completeStatus string) string {
	t.Helper()

	s := server.NewMCPServer("device-auth-test", "1.0.0")

	s.AddTool(mcpgo.NewTool(auth.ToolAuthenticate), func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		b, _ := json.Marshal(map[string]any{
			"verification_url": "https://microsoft.com/devicelogin",
			"device_code":      "FJ4K-9QZ2",
			"expires_in":       900,
			"_flow_cache":      flowCache,
		})
		return mcpgo.NewToolResultText(string(b)), nil
	})

	s.AddTool(mcpgo.NewTool(auth.ToolComplete), func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		got, _ := req.GetArguments()["flow_cache"].(string)
		if got != flowCache {
			return mcpgo.NewToolResultText(`{"status":"error","message":"flow_cache mismatch"}`), nil
		}
		if completeStatus == "pending" {
			return mcpgo.NewToolResultText(`{"status":"pending"}`), nil
		}
		return mcpgo.NewToolResultText(`{"status":"success","username":"alice","account_id":"abc123"}`), nil
	})

	ts := server.NewTestStreamableHTTPServer(s)
	t.Cleanup(ts.Close)
	return ts.URL
}

func newClient(t *testing.T, url string) *mcp.Client {
	t.Helper()

	cfg := mcp.DefaultConfig()
	cfg.ServerURL = url
	c, err := mcp.NewClient(cfg, mcp.WithLogger(slog.New(slog.DiscardHandler)))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	if _, err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return c
}

func TestDeviceFlow_EndToEnd(t *testing.T) {
	client := newClient(t, newDeviceAuthServer(t, "success"))

	var shown *auth.Challenge
	flow := auth.NewFlow(client, auth.WithLogger(slog.New(slog.DiscardHandler)))
	outcome, err := flow.Run(context.Background(), func(ctx context.Context, c *auth.Challenge) error {
		shown = c
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if shown == nil || shown.DeviceCode != "FJ4K-9QZ2" {
		t.Errorf("challenge = %+v", shown)
	}
	if !outcome.Authenticated() {
		t.Fatalf("outcome = %+v (message %q), want authenticated", outcome, outcome.Message)
	}
	if outcome.Account.AccountID != "abc123" || outcome.Account.Username != "alice" {
		t.Errorf("account = %+v", outcome.Account)
	}
}

func TestDeviceFlow_EndToEndPending(t *testing.T) {
	client := newClient(t, newDeviceAuthServer(t, "pending"))

	flow := auth.NewFlow(client, auth.WithLogger(slog.New(slog.DiscardHandler)))
	outcome, err := flow.Run(context.Background(), func(context.Context, *auth.Challenge) error { return nil })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !outcome.Pending() {
		t.Fatalf("outcome = %+v, want pending", outcome)
	}
	if outcome.Account != nil {
		t.Errorf("pending outcome carries account %+v", outcome.Account)
	}
}
