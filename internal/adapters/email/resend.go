package email

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a sender with a default from address.
// PRE: apiKey is a Resend API key
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

// Send submits msg to Resend.
// POST: on success the Receipt carries the Resend message ID
func (s *ResendSender) Send(ctx context.Context, msg Message) (Receipt, error) {
	req := &resend.SendEmailRequest{
		From:    cmp.Or(msg.From, s.from),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
		Tags:    resendTags(msg.Tags),
	}
	sent, err := s.client.Emails.SendWithContext(ctx, req)
	if err != nil {
		slog.Error("email_event", "event", "resend_failed", "to", msg.To, "error", err)
		return Receipt{}, fmt.Errorf("resend: %w", err)
	}
	slog.Info("email_event", "event", "resend_sent", "to", msg.To, "message_id", sent.Id)
	return Receipt{ID: sent.Id, AcceptedAt: time.Now()}, nil
}

// resendTags converts tags in key order, replacing characters Resend rejects with '_'.
func resendTags(tags map[string]string) []resend.Tag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]resend.Tag, 0, len(tags))
	for _, k := range slices.Sorted(maps.Keys(tags)) {
		out = append(out, resend.Tag{Name: tagSafe(k), Value: tagSafe(tags[k])})
	}
	return out
}

// tagSafe keeps ASCII letters, digits, '_' and '-'.
func tagSafe(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, s)
}
