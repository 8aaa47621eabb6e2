package mailbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/mcpmail/internal/auth"
	"github.com/teemow/mcpmail/internal/logging"
	"github.com/teemow/mcpmail/internal/mcp"
)

// Tool names exposed by the mail server.
const (
	ToolListAccounts = "list_accounts"
	ToolListEmails   = "list_emails"
)

// Defaults for ListEmails.
const (
	DefaultFolder = "inbox"
	DefaultLimit  = 5
)

// Caller is the part of the MCP client the mailbox needs.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
}

// LoginFunc signs in a new account, typically by running an auth.Flow.
type LoginFunc func(ctx context.Context) (*auth.Account, error)

// ErrNoAccount is returned by EnsureAccount when there is no account and
// no way to sign one in.
var ErrNoAccount = errors.New("no signed-in account")

// EmailAddress is a name/address pair.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Recipient wraps an address the way the mail API nests it.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// Body is the message body; only present when requested.
type Body struct {
	ContentType string `json:"contentType,omitempty"`
	Content     string `json:"content"`
}

// Email is a message summary as returned by list_emails.
type Email struct {
	ID               string    `json:"id,omitempty"`
	Subject          string    `json:"subject"`
	From             Recipient `json:"from"`
	ReceivedDateTime string    `json:"receivedDateTime"`
	IsRead           bool      `json:"isRead"`
	HasAttachments   bool      `json:"hasAttachments"`
	BodyPreview      string    `json:"bodyPreview,omitempty"`
	Body             *Body     `json:"body,omitempty"`
}

// Received parses ReceivedDateTime.
func (e Email) Received() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, e.ReceivedDateTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ListEmailsOptions selects the messages to list.
type ListEmailsOptions struct {
	AccountID   string
	Folder      string
	Limit       int
	IncludeBody bool
}

func (o ListEmailsOptions) args() map[string]any {
	folder := o.Folder
	if folder == "" {
		folder = DefaultFolder
	}
	limit := o.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return map[string]any{
		"account_id":   o.AccountID,
		"folder":       folder,
		"limit":        limit,
		"include_body": o.IncludeBody,
	}
}

// Mailbox reads accounts and messages through the mail server's tools.
type Mailbox struct {
	caller Caller
	logger *slog.Logger
}

// New creates a Mailbox. A nil logger uses slog.Default.
func New(caller Caller, logger *slog.Logger) *Mailbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mailbox{caller: caller, logger: logger}
}

// ListAccounts returns the accounts already signed in on the server.
// A result without content means there are none.
func (m *Mailbox) ListAccounts(ctx context.Context) ([]auth.Account, error) {
	result, err := m.call(ctx, ToolListAccounts, map[string]any{})
	if err != nil {
		return nil, err
	}

	var accounts []auth.Account
	if err := result.DecodeText(&accounts); err != nil {
		if errors.Is(err, mcp.ErrNoTextContent) {
			return []auth.Account{}, nil
		}
		return nil, fmt.Errorf("%s: %w", ToolListAccounts, err)
	}
	if accounts == nil {
		accounts = []auth.Account{}
	}
	return accounts, nil
}

// ListEmails lists messages of one account. The server may answer with an
// array, an object wrapping the array under "value", or a single message.
func (m *Mailbox) ListEmails(ctx context.Context, opts ListEmailsOptions) ([]Email, error) {
	if opts.AccountID == "" {
		return nil, fmt.Errorf("%s: account id is required", ToolListEmails)
	}

	args := opts.args()
	result, err := m.call(ctx, ToolListEmails, args)
	if err != nil {
		return nil, err
	}

	var payload json.RawMessage
	if err := result.DecodeText(&payload); err != nil {
		return nil, fmt.Errorf("%s: %w", ToolListEmails, err)
	}

	emails, err := decodeEmails(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ToolListEmails, err)
	}

	m.logger.Debug("listed emails",
		logging.Tool(ToolListEmails),
		slog.Any("folder", args["folder"]),
		slog.Int("count", len(emails)),
	)
	return emails, nil
}

// EnsureAccount returns the first signed-in account, running login when
// there is none.
func (m *Mailbox) EnsureAccount(ctx context.Context, login LoginFunc) (*auth.Account, error) {
	accounts, err := m.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) > 0 {
		m.logger.Debug("using existing account",
			slog.Int("accounts", len(accounts)),
			logging.UserHash(accounts[0].Username),
		)
		return &accounts[0], nil
	}

	if login == nil {
		return nil, ErrNoAccount
	}
	m.logger.Info("no signed-in account, starting login")
	return login(ctx)
}

func (m *Mailbox) call(ctx context.Context, tool string, args map[string]any) (*mcp.ToolResult, error) {
	raw, err := m.caller.CallTool(ctx, tool, args)
	if err != nil {
		return nil, err
	}
	result, err := mcp.ParseToolResult(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tool, err)
	}
	result.Tool = tool
	return result, nil
}

func decodeEmails(payload json.RawMessage) ([]Email, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Email{}, nil
	}

	switch trimmed[0] {
	case '[':
		var emails []Email
		if err := json.Unmarshal(trimmed, &emails); err != nil {
			return nil, err
		}
		return emails, nil
	case '{':
		var wrapper struct {
			Value *[]Email `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err == nil && wrapper.Value != nil {
			return *wrapper.Value, nil
		}
		var email Email
		if err := json.Unmarshal(trimmed, &email); err != nil {
			return nil, err
		}
		return []Email{email}, nil
	default:
		return nil, fmt.Errorf("unexpected payload %.40q", trimmed)
	}
}
