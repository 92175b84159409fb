// Package channel delivers rendered messages through an external provider.
package channel

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNoDestination = errors.New("channel: message has no destination")

// Message is one outbound send. ChannelID is the bound destination address
// (phone number or email).
type Message struct {
	ContactID int
	ChannelID string
	Content   string
	AccountID int
}

// Sender delivers a message and returns the provider's message id. Any error
// is a failed attempt.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type SenderFunc func(ctx context.Context, msg Message) (string, error)

func (f SenderFunc) Send(ctx context.Context, msg Message) (string, error) { return f(ctx, msg) }

// Router sends email addresses through Email and everything else through SMS.
type Router struct {
	SMS   Sender
	Email Sender
}

func (r *Router) Send(ctx context.Context, msg Message) (string, error) {
	if strings.TrimSpace(msg.ChannelID) == "" {
		return "", ErrNoDestination
	}
	if strings.Contains(msg.ChannelID, "@") && r.Email != nil {
		return r.Email.Send(ctx, msg)
	}
	if r.SMS == nil {
		return "", errors.New("channel: no sms provider configured")
	}
	return r.SMS.Send(ctx, msg)
}

type timeoutSender struct {
	next  Sender
	after time.Duration
}

// WithTimeout bounds every send. A deadline hit surfaces as an error like any
// other provider failure.
func WithTimeout(next Sender, after time.Duration) Sender {
	if after <= 0 {
		return next
	}
	return &timeoutSender{next: next, after: after}
}

func (t *timeoutSender) Send(ctx context.Context, msg Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.after)
	defer cancel()

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := t.next.Send(ctx, msg)
		done <- result{id, err}
	}()

	select {
	case r := <-done:
		return r.id, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
