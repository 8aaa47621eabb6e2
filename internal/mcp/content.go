package mcp

import (
	"encoding/json"
	"fmt"
)

// Tool is a tool descriptor as returned by tools/list. Fields the client
// does not use are ignored.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ContentBlock is a single content item of a tools/call result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolResult is the decoded result of a tools/call.
type ToolResult struct {
	Tool    string         `json:"-"`
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ParseToolResult decodes the raw result of a tools/call. A malformed
// result is a *DecodeError.
func ParseToolResult(raw json.RawMessage) (*ToolResult, error) {
	var result ToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("tool result: %w", err)}
	}
	return &result, nil
}

// Text returns the text of the first text content block.
func (r *ToolResult) Text() (string, bool) {
	for _, block := range r.Content {
		if block.Type == "text" {
			return block.Text, true
		}
	}
	return "", false
}

// Err returns a *ToolError if the result is flagged as an error.
func (r *ToolResult) Err() error {
	if !r.IsError {
		return nil
	}
	text, _ := r.Text()
	return &ToolError{Tool: r.Tool, Text: text}
}

// DecodeText JSON-decodes the first text content block into v. Results
// flagged with isError surface as *ToolError, and a result without text is
// ErrNoTextContent.
func (r *ToolResult) DecodeText(v any) error {
	if err := r.Err(); err != nil {
		return err
	}
	text, ok := r.Text()
	if !ok {
		return ErrNoTextContent
	}
	if err := json.Unmarshal([]byte(text), v); err != nil {
		return &DecodeError{Err: fmt.Errorf("tool %s text content: %w", r.Tool, err)}
	}
	return nil
}
