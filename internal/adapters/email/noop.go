package email

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// NoopSender accepts every message without delivering it.
// Used in development and tests; Sent exposes what would have gone out.
type NoopSender struct {
	mu   sync.Mutex
	sent []Message
}

// NewNoopSender creates an empty NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

// Send records msg and logs its subject. The password never reaches the log.
func (s *NoopSender) Send(_ context.Context, msg Message) (Receipt, error) {
	s.mu.Lock()
	s.sent = append(s.sent, msg)
	n := len(s.sent)
	s.mu.Unlock()

	slog.Info("email_event", "event", "noop_send", "to", msg.To, "subject", msg.Subject)
	return Receipt{ID: fmt.Sprintf("noop-%d", n), AcceptedAt: time.Now()}, nil
}

// Sent returns a copy of every message accepted so far.
func (s *NoopSender) Sent() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.sent))
	copy(out, s.sent)
	return out
}
