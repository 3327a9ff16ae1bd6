// Package email delivers login credentials to newly registered attendants and students.
package email

import (
	"context"
	"time"
)

// Message is one outgoing mail to a single recipient.
type Message struct {
	To      string
	From    string // empty uses the sender's default address
	ReplyTo string
	Subject string
	HTML    string
	Text    string            // plain-text alternative
	Tags    map[string]string // provider analytics tags
}

// Receipt is the provider's acknowledgement of an accepted message.
type Receipt struct {
	ID         string
	AcceptedAt time.Time
}

// Sender hands messages to a mail provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (Receipt, error)
}
