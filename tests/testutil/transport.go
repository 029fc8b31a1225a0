package testutil

import (
	"context"
	"sync"

	"github.com/nhle/hsck/internal/notify"
)

// RecordingTransport is a notify.Transport that keeps every message it is
// asked to deliver. Recipients listed in Fail get the mapped error back.
type RecordingTransport struct {
	Fail map[string]error

	mu       sync.Mutex
	attempts []string
	sent     []*notify.Message
}

// NewRecordingTransport returns an empty recorder.
func NewRecordingTransport() *RecordingTransport {
	return &RecordingTransport{Fail: map[string]error{}}
}

// Send records msg, or returns the configured failure for its recipient.
func (t *RecordingTransport) Send(_ context.Context, msg *notify.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	to := msg.To.Address
	t.attempts = append(t.attempts, to)
	if err, ok := t.Fail[to]; ok {
		return err
	}
	t.sent = append(t.sent, msg)
	return nil
}

// Attempts returns the recipients of every Send call, in call order.
func (t *RecordingTransport) Attempts() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.attempts...)
}

// Sent returns the successfully delivered messages, in call order.
func (t *RecordingTransport) Sent() []*notify.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*notify.Message(nil), t.sent...)
}
