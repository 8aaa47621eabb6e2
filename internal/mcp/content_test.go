package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToolResult(t *testing.T) {
	result, err := ParseToolResult(json.RawMessage(`{"content":[{"type":"image"},{"type":"text","text":"{\"a\":1}"}]}`))
	require.NoError(t, err)

	text, ok := result.Text()
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, text)

	var v struct{ A int }
	require.NoError(t, result.DecodeText(&v))
	assert.Equal(t, 1, v.A)
}

func TestParseToolResult_Malformed(t *testing.T) {
	_, err := ParseToolResult(json.RawMessage(`{"content":"nope"}`))

	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestToolResult_DecodeText_NoText(t *testing.T) {
	result, err := ParseToolResult(json.RawMessage(`{"content":[]}`))
	require.NoError(t, err)

	_, ok := result.Text()
	assert.False(t, ok)

	var v any
	assert.ErrorIs(t, result.DecodeText(&v), ErrNoTextContent)
}

func TestToolResult_DecodeText_BadJSON(t *testing.T) {
	result := &ToolResult{Tool: "list_accounts", Content: []ContentBlock{{Type: "text", Text: "not json"}}}

	var v any
	err := result.DecodeText(&v)

	var decodeErr *DecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Contains(t, err.Error(), "list_accounts")
}

func TestToolResult_DecodeText_IsError(t *testing.T) {
	result := &ToolResult{Tool: "list_emails", IsError: true, Content: []ContentBlock{{Type: "text", Text: "account not found"}}}

	var v any
	err := result.DecodeText(&v)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "account not found", toolErr.Text)
	assert.Equal(t, "tool list_emails returned error: account not found", err.Error())
}
