// Package notify builds reminder mails and delivers them over a pluggable
// transport.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-message/mail"
	"go.uber.org/zap"

	"github.com/nhle/hsck/internal/model"
)

// Notifier sends reminders from a fixed sender address.
type Notifier struct {
	from      *mail.Address
	transport Transport
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes a Notifier.
type Option func(*Notifier)

// WithTransport replaces the SMTP transport, e.g. with a FileTransport for
// dry runs or a recorder in tests.
func WithTransport(t Transport) Option {
	return func(n *Notifier) { n.transport = t }
}

// WithLogger sets the logger used to report each delivery.
func WithLogger(l *zap.Logger) Option {
	return func(n *Notifier) { n.logger = l }
}

// WithClock sets the clock used for the Date header.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// New creates a Notifier sending as from. Unless a transport is supplied
// with WithTransport, an SMTPTransport is prepared from settings.
func New(from string, settings model.SMTPSettings, opts ...Option) (*Notifier, error) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return nil, &SendError{Kind: KindAddress, Err: fmt.Errorf("invalid sender address %q: %w", from, err)}
	}

	n := &Notifier{
		from:   addr,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.transport == nil {
		t, err := NewSMTPTransport(settings)
		if err != nil {
			return nil, &SendError{Kind: KindTransport, Err: err}
		}
		n.transport = t
	}

	return n, nil
}

// From returns the sender address.
func (n *Notifier) From() string {
	return n.from.Address
}

// Send builds a multipart message with text and HTML alternatives and
// delivers it synchronously. Failures are returned as *SendError and are
// not retried.
func (n *Notifier) Send(ctx context.Context, to, subject, text, html string) error {
	rcpt, err := mail.ParseAddress(to)
	if err != nil {
		return &SendError{Kind: KindAddress, Recipient: to, Err: fmt.Errorf("invalid recipient address: %w", err)}
	}

	msg, err := NewMessage(n.from, rcpt, subject, text, html, n.now())
	if err != nil {
		return &SendError{Kind: KindBuild, Recipient: to, Err: err}
	}

	if err := n.transport.Send(ctx, msg); err != nil {
		if IsSendError(err) {
			return err
		}
		return &SendError{Kind: KindDelivery, Recipient: to, Err: err}
	}

	n.logger.Info("mail sent", zap.String("to", rcpt.Address), zap.String("subject", subject))
	return nil
}

// NotifyStudent sends the bilingual missing-homework reminder to stu.
func (n *Notifier) NotifyStudent(ctx context.Context, homework string, stu model.Student) error {
	text, html, err := renderReminder(homework, stu)
	if err != nil {
		return &SendError{Kind: KindBuild, Recipient: stu.Email, Err: fmt.Errorf("rendering reminder: %w", err)}
	}
	return n.Send(ctx, stu.Email, ReminderSubject, text, html)
}

// Result is the outcome of notifying one student.
type Result struct {
	Student model.Student
	Err     error
}

// OK reports whether the reminder was delivered.
func (r Result) OK() bool {
	return r.Err == nil
}

// NotifyAll reminds each student in order, one at a time. A failure is
// logged and recorded in the result; it never stops the loop.
func (n *Notifier) NotifyAll(ctx context.Context, homework string, students []model.Student) []Result {
	results := make([]Result, 0, len(students))
	for _, stu := range students {
		err := n.NotifyStudent(ctx, homework, stu)
		if err != nil {
			n.logger.Warn("sending reminder failed",
				zap.String("student", stu.Name),
				zap.String("email", stu.Email),
				zap.Error(err),
			)
		}
		results = append(results, Result{Student: stu, Err: err})
	}

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	n.logger.Info("notification run finished",
		zap.String("homework", homework),
		zap.Int("sent", len(results)-failed),
		zap.Int("failed", failed),
	)
	return results
}
