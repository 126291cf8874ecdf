package email

import (
	"fmt"
	"log"
)

// Sender delivers a validated message. Implementations are transports:
// SMTP, an API client, or the logging sender used outside production.
type Sender func(msg *Message) error

// Emailer validates messages before handing them to the configured sender.
type Emailer struct {
	send Sender
}

func NewEmailer(send Sender) *Emailer {
	if send == nil {
		send = LogSender(nil)
	}
	return &Emailer{send: send}
}

// Send validates the message and delivers it. A validation failure is
// returned before the sender runs.
func (e *Emailer) Send(msg *Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	return e.send(msg)
}

func validate(msg *Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email: message must have at least one recipient")
	}
	if err := validateList(msg.To, "recipient"); err != nil {
		return err
	}
	if err := validateList(msg.Cc, "CC"); err != nil {
		return err
	}
	if err := validateList(msg.Bcc, "BCC"); err != nil {
		return err
	}
	if err := validateList(msg.ReplyTo, "Reply-To"); err != nil {
		return err
	}
	if msg.Subject == "" {
		return fmt.Errorf("email: message must include a subject")
	}
	if msg.HTMLBody == "" && msg.TextBody == "" {
		return fmt.Errorf("email: message must include a body")
	}
	if !msg.From.Valid() {
		return fmt.Errorf("email: message requires a valid From address")
	}
	return nil
}

func validateList(addrs []Address, kind string) error {
	for _, a := range addrs {
		if !a.Valid() {
			return fmt.Errorf("email: invalid %s address: %s", kind, a.Email)
		}
	}
	return nil
}

// LogSender writes messages to the logger instead of delivering them. A nil
// logger uses the standard logger.
func LogSender(logger *log.Logger) Sender {
	return func(msg *Message) error {
		if logger != nil {
			logger.Printf("[email]\n%s", msg)
		} else {
			log.Printf("[email]\n%s", msg)
		}
		return nil
	}
}
