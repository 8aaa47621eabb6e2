package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/teemow/mcpmail/internal/config"
	"github.com/teemow/mcpmail/internal/logging"
	"github.com/teemow/mcpmail/internal/mcp"
)

// Environment variables consulted when a flag is not set.
const (
	envServerURL     = "MCP_SERVER_URL"
	envEndpointPath  = "MCP_ENDPOINT_PATH"
	envTimeout       = "MCP_TIMEOUT"
	envToken         = "MCP_TOKEN"
	envSessionHeader = "MCP_SESSION_HEADER"
	envDebug         = "MCPMAIL_DEBUG"
	envLogFormat     = "LOG_FORMAT"
	envMetricsAddr   = "METRICS_ADDR"
)

// rootOptions holds the persistent flags after layering flags, environment
// and config file.
type rootOptions struct {
	configFile    string
	serverURL     string
	endpointPath  string
	timeout       time.Duration
	token         string
	sessionHeader string
	debug         bool
	logFormat     string
	metricsAddr   string
	output        string

	logger *slog.Logger
}

func (o *rootOptions) addFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configFile, "config", "", "Path to a YAML config file (default: ./mcpmail.yaml or ~/.config/mcpmail/config.yaml)")
	flags.StringVar(&o.serverURL, "server-url", mcp.DefaultServerURL, "Base URL of the MCP server. Can also use MCP_SERVER_URL env var.")
	flags.StringVar(&o.endpointPath, "endpoint-path", mcp.DefaultEndpointPath, "Path of the MCP endpoint on the server. Can also use MCP_ENDPOINT_PATH env var.")
	flags.DurationVar(&o.timeout, "timeout", mcp.DefaultTimeout, "Deadline for each request. Can also use MCP_TIMEOUT env var.")
	flags.StringVar(&o.token, "token", "", "Bearer token sent on every request. Can also use MCP_TOKEN env var.")
	flags.StringVar(&o.sessionHeader, "session-header", mcp.DefaultSessionHeader, "Header carrying the session token. Can also use MCP_SESSION_HEADER env var.")
	flags.BoolVar(&o.debug, "debug", false, "Enable debug logging. Can also use MCPMAIL_DEBUG env var.")
	flags.StringVar(&o.logFormat, "log-format", logging.FormatText, "Log format: text or json. Can also use LOG_FORMAT env var.")
	flags.StringVarP(&o.output, "output", "o", outputText, "Output format: text or json")
	flags.StringVar(&o.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the command runs (e.g. 127.0.0.1:9090). Can also use METRICS_ADDR env var.")
}

// load applies environment variables and the config file to every flag the
// user did not set, then configures logging.
func (o *rootOptions) load(cmd *cobra.Command) error {
	path, err := config.Find(o.configFile)
	if err != nil {
		return err
	}
	file := &config.Config{}
	if path != "" {
		if file, err = config.Load(path); err != nil {
			return err
		}
	}

	flags := cmd.Flags()
	resolveString(flags, "server-url", envServerURL, file.Server.URL, &o.serverURL)
	resolveString(flags, "endpoint-path", envEndpointPath, file.Server.EndpointPath, &o.endpointPath)
	resolveString(flags, "token", envToken, file.Server.Token, &o.token)
	resolveString(flags, "session-header", envSessionHeader, file.Server.SessionHeader, &o.sessionHeader)
	resolveString(flags, "log-format", envLogFormat, file.Log.Format, &o.logFormat)
	resolveString(flags, "metrics-addr", envMetricsAddr, file.Metrics.Addr, &o.metricsAddr)

	if !flags.Changed("timeout") {
		if v := os.Getenv(envTimeout); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", envTimeout, v, err)
			}
			o.timeout = d
		} else if file.Server.Timeout > 0 {
			o.timeout = file.Server.Timeout
		}
	}

	if !flags.Changed("debug") {
		o.debug = getEnvBoolOrDefault(envDebug, file.Log.Debug())
	}

	if o.output != outputText && o.output != outputJSON {
		return fmt.Errorf("invalid output format %q, must be one of: text, json", o.output)
	}

	format, err := logging.ParseFormat(o.logFormat)
	if err != nil {
		return err
	}

	o.logger = logging.New(cmd.ErrOrStderr(), logging.Options{Format: format, Debug: o.debug})
	slog.SetDefault(o.logger)

	if path != "" {
		o.logger.Debug("loaded config file", "path", path)
	}
	return nil
}

// clientConfig builds the MCP client configuration from the resolved options.
func (o *rootOptions) clientConfig() mcp.Config {
	cfg := mcp.DefaultConfig()
	cfg.ServerURL = o.serverURL
	cfg.EndpointPath = o.endpointPath
	cfg.Timeout = o.timeout
	cfg.Token = o.token
	cfg.SessionHeader = o.sessionHeader
	cfg.ClientVersion = version
	return cfg
}

// resolveString fills dst from the environment, then the config file, unless
// the flag was set explicitly.
func resolveString(flags *pflag.FlagSet, name, envKey, fileValue string, dst *string) {
	if flags.Changed(name) {
		return
	}
	if v := os.Getenv(envKey); v != "" {
		*dst = v
		return
	}
	if fileValue != "" {
		*dst = fileValue
	}
}

// getEnvBoolOrDefault returns the boolean value of an environment variable or a default value.
func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return defaultValue
		}
		return parsed
	}
	return defaultValue
}
