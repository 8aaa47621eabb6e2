package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestFind_Explicit(t *testing.T) {
	path := writeFile(t, t.TempDir(), "custom.yaml", "server:\n  url: http://x\n")

	got, err := Find(path)
	if err != nil {
		t.Fatalf("Find(%q) error: %v", path, err)
	}
	if got != path {
		t.Errorf("Find(%q) = %q, want %q", path, got, path)
	}
}

func TestFind_ExplicitMissing(t *testing.T) {
	if _, err := Find("/nonexistent/mcpmail.yaml"); err == nil {
		t.Fatal("Find with missing explicit path should error")
	}
}

func TestFind_NothingIsNotAnError(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	got, err := Find("")
	if err != nil {
		t.Fatalf("Find(\"\") error: %v", err)
	}
	if got != "" {
		t.Errorf("Find(\"\") = %q, want empty", got)
	}
}

func TestFind_CWD(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, "log:\n  level: debug\n")
	t.Chdir(dir)

	got, err := Find("")
	if err != nil {
		t.Fatalf("Find(\"\") error: %v", err)
	}
	if got != FileName {
		t.Errorf("Find(\"\") = %q, want %q", got, FileName)
	}
}

func TestFind_Home(t *testing.T) {
	t.Chdir(t.TempDir())
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".config", "mcpmail")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	want := writeFile(t, dir, "config.yaml", "")

	got, err := Find("")
	if err != nil {
		t.Fatalf("Find(\"\") error: %v", err)
	}
	if got != want {
		t.Errorf("Find(\"\") = %q, want %q", got, want)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_MCP_TOKEN", "s3cret")
	path := writeFile(t, t.TempDir(), "mcpmail.yaml", `
server:
  url: https://mail.example.com
  endpoint_path: /rpc
  timeout: 15s
  token: ${TEST_MCP_TOKEN}
  session_header: X-Session
log:
  level: debug
  format: json
metrics:
  addr: 127.0.0.1:9191
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.URL != "https://mail.example.com" {
		t.Errorf("Server.URL = %q", cfg.Server.URL)
	}
	if cfg.Server.EndpointPath != "/rpc" {
		t.Errorf("Server.EndpointPath = %q", cfg.Server.EndpointPath)
	}
	if cfg.Server.Timeout != 15*time.Second {
		t.Errorf("Server.Timeout = %v, want 15s", cfg.Server.Timeout)
	}
	if cfg.Server.Token != "s3cret" {
		t.Errorf("Server.Token = %q, want expanded env value", cfg.Server.Token)
	}
	if cfg.Server.SessionHeader != "X-Session" {
		t.Errorf("Server.SessionHeader = %q", cfg.Server.SessionHeader)
	}
	if !cfg.Log.Debug() || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Metrics.Addr != "127.0.0.1:9191" {
		t.Errorf("Metrics.Addr = %q", cfg.Metrics.Addr)
	}
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(writeFile(t, t.TempDir(), "empty.yaml", ""))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.URL != "" || cfg.Server.Timeout != 0 || cfg.Log.Debug() {
		t.Errorf("empty file produced non-zero config: %+v", cfg)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "malformed", content: "server: [", want: "parse"},
		{name: "bad duration", content: "server:\n  timeout: soon\n", want: "parse"},
		{name: "negative timeout", content: "server:\n  timeout: -1s\n", want: "server.timeout"},
		{name: "bad level", content: "log:\n  level: trace\n", want: "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, t.TempDir(), "c.yaml", tt.content))
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load() of missing file expected error")
	}
}
