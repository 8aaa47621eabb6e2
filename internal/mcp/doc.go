// Package mcp implements the client side of the MCP streamable HTTP
// transport: JSON-RPC 2.0 requests POSTed to a single endpoint, answered
// either as a plain JSON document or as an event stream.
//
// The package is layered leaf first:
//
//   - codec.go encodes call envelopes and decodes replies of either encoding
//     into one result value, or into a typed error
//   - session.go carries the server-assigned session token across calls
//   - transport.go performs the HTTP exchange and nothing else
//   - client.go assigns request ids and ties the pieces together
//   - content.go reads tools/call results (the second decode step)
//
// Errors are typed so callers can tell failure modes apart with errors.As:
// *TransportError, *StatusError, *DecodeError, *RPCError and *ToolError.
// Nothing in this package retries.
package mcp
