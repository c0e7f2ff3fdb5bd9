// Package mailx is the outbound email collaborator. Delivery is best-effort:
// callers persist state first and never roll back on a send failure.
package mailx

import (
	"context"
	"fmt"
	"net/smtp"
	"sync"
)

// Sender delivers a single message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	Addr string // host:port
	From string
	Auth smtp.Auth // nil for unauthenticated relays
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		s.From, to, subject, body)

	if err := smtp.SendMail(s.Addr, s.Auth, s.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mailx: send to %s: %w", to, err)
	}
	return nil
}

// Message is a recorded outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Recorder captures messages in memory instead of sending them. Used in tests
// and as the delivery backend when no SMTP relay is configured.
type Recorder struct {
	mu       sync.Mutex
	messages []Message

	// FailWith, when set, makes every Send return this error.
	FailWith error
}

func (r *Recorder) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailWith != nil {
		return r.FailWith
	}

	r.messages = append(r.messages, Message{To: to, Subject: subject, Body: body})
	return nil
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}
