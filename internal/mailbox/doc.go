// Package mailbox reads accounts and messages from the mail server through
// its list_accounts and list_emails tools.
package mailbox
