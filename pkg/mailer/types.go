package mailer

import (
	"net/mail"
	"strings"
)

// Tags represents email tags/categories that can be either presence-only
// (using struct{}{}) or key-value pairs (using string values).
// Each provider adapter converts them to its own format:
//   - Brevo: uses only tag names
//   - Resend: uses name-value pairs (presence-only tags become name="true")
type Tags map[string]any

// SimpleTags creates presence-only tags from a list of tag names.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

// String formats the address per RFC 5322, quoting the name when needed.
// Returns just the email when no name is set.
func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return (&mail.Address{Name: a.Name, Address: a.Email}).String()
}

// IsZero reports whether the address has no email.
func (a Address) IsZero() bool {
	return strings.TrimSpace(a.Email) == ""
}

// Email represents a fully-prepared email message ready for sending.
type Email struct {
	Headers map[string]string // Custom headers
	Tags    Tags              // Provider-specific tags/categories
	Subject string            // Email subject
	HTML    string            // HTML body content
	Text    string            // Plain text alternative
	From    Address           // Sender
	ReplyTo Address           // Optional reply-to
	To      []Address         // Recipients (at least one required)
}

// Validate checks the fields every transport needs.
func (e *Email) Validate() error {
	switch {
	case len(e.To) == 0 || e.To[0].IsZero():
		return ErrNoRecipient
	case e.From.IsZero():
		return ErrNoSender
	case strings.TrimSpace(e.Subject) == "":
		return ErrNoSubject
	case e.HTML == "" && e.Text == "":
		return ErrNoContent
	}
	return nil
}
