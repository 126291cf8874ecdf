// Package email provides an outbound mail abstraction with pluggable
// delivery. The default sender only logs, which is what development and
// test environments want.
package email

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Address is a recipient or sender, name optional.
type Address struct {
	Email string
	Name  string
}

func (a Address) String() string {
	if a.Name != "" {
		return fmt.Sprintf("%s <%s>", a.Name, a.Email)
	}
	return a.Email
}

// Valid reports whether the email part parses as an RFC 5322 address.
func (a Address) Valid() bool {
	s := strings.TrimSpace(a.Email)
	if s == "" {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}

// Message is a simple DTO for an outbound email.
type Message struct {
	Subject string
	// HTMLBody is the primary body. TextBody, when empty, is derived from
	// HTMLBody by stripping markup.
	HTMLBody string
	TextBody string

	From    Address
	To      []Address
	Cc      []Address
	Bcc     []Address
	ReplyTo []Address
}

// NewMessage builds a message with subject and HTML body set.
func NewMessage(subject, htmlBody string) *Message {
	return &Message{Subject: subject, HTMLBody: htmlBody}
}

func (m *Message) AddTo(email, name string) *Message {
	m.To = append(m.To, Address{Email: email, Name: name})
	return m
}

func (m *Message) AddCc(email, name string) *Message {
	m.Cc = append(m.Cc, Address{Email: email, Name: name})
	return m
}

func (m *Message) AddBcc(email, name string) *Message {
	m.Bcc = append(m.Bcc, Address{Email: email, Name: name})
	return m
}

func (m *Message) AddReplyTo(email, name string) *Message {
	m.ReplyTo = append(m.ReplyTo, Address{Email: email, Name: name})
	return m
}

func (m *Message) SetFrom(email, name string) *Message {
	m.From = Address{Email: strings.TrimSpace(email), Name: strings.TrimSpace(name)}
	return m
}

var stripPolicy = bluemonday.StrictPolicy()

// Text returns the plain text body, deriving it from the HTML body when no
// explicit text body was set.
func (m *Message) Text() string {
	if m.TextBody != "" {
		return m.TextBody
	}
	return strings.TrimSpace(stripPolicy.Sanitize(m.HTMLBody))
}

func joinAddresses(addrs []Address) string {
	parts := make([]string, 0, len(addrs))
	for _, a := range addrs {
		parts = append(parts, a.String())
	}
	return strings.Join(parts, ", ")
}

// String renders the message headers and bodies for logging.
func (m *Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Subject: %s\n", orPlaceholder(m.Subject, "(none)"))
	fmt.Fprintf(&b, "From: %s\n", orPlaceholder(m.From.String(), "(not set)"))
	fmt.Fprintf(&b, "To: %s\n", orPlaceholder(joinAddresses(m.To), "(not set)"))
	if len(m.Cc) > 0 {
		fmt.Fprintf(&b, "Cc: %s\n", joinAddresses(m.Cc))
	}
	if len(m.Bcc) > 0 {
		fmt.Fprintf(&b, "Bcc: %s\n", joinAddresses(m.Bcc))
	}
	if len(m.ReplyTo) > 0 {
		fmt.Fprintf(&b, "Reply-To: %s\n", joinAddresses(m.ReplyTo))
	}
	if m.HTMLBody != "" {
		fmt.Fprintf(&b, "--- HTML Body ---\n%s\n", strings.TrimSpace(m.HTMLBody))
	}
	if text := m.Text(); text != "" {
		fmt.Fprintf(&b, "--- Text Body ---\n%s\n", text)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
