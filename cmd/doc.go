// Package cmd implements the command-line interface for mcpmail.
//
// This package provides the following commands:
//   - tools: List the tools the server offers
//   - accounts: List accounts already signed in on the server
//   - login: Sign an account in with the device code flow
//   - emails: List recent messages, signing in first if needed
//   - call: Invoke any tool with JSON arguments
//   - version: Display version information
//
// Every command except version opens a session: it initializes the MCP
// connection, sets up instrumentation and, with --metrics-addr, serves
// Prometheus metrics until the command returns.
package cmd
