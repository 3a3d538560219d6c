// Package mailer delivers templated transactional email.
//
// Handlers and services never talk to a Sender directly: they hand messages to
// a Dispatcher, which queues them and delivers them from background workers so
// that a slow or failing email provider never delays or fails a request.
package mailer

import (
	"context"
	"net/mail"
)

// Message is a templated email addressed to a single recipient.
type Message struct {
	ToAddress string
	Template  string
	Variables map[string]string
}

// Sender delivers a templated message through an email provider.
type Sender interface {
	SendEmailWithTemplate(ctx context.Context, msg Message) error
}

// FormatAddress renders an RFC 5322 address, quoting the display name when present.
func FormatAddress(name, email string) string {
	if name == "" {
		return email
	}
	return (&mail.Address{Name: name, Address: email}).String()
}
