package notify

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

// Message is a rendered notification: envelope addresses plus the
// RFC 5322 bytes of a multipart/alternative mail.
type Message struct {
	From    *mail.Address
	To      *mail.Address
	Subject string

	raw []byte
}

// NewMessage renders a mail with a text/plain and a text/html alternative.
func NewMessage(from, to *mail.Address, subject, text, html string, date time.Time) (*Message, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(subject)
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", text},
		{"text/html", html},
	}
	for _, p := range parts {
		var ph mail.InlineHeader
		ph.SetContentType(p.contentType, map[string]string{"charset": "utf-8"})
		ph.Set("Content-Transfer-Encoding", "quoted-printable")

		pw, err := w.CreatePart(ph)
		if err != nil {
			return nil, fmt.Errorf("creating %s part: %w", p.contentType, err)
		}
		if _, err := io.WriteString(pw, p.body); err != nil {
			return nil, fmt.Errorf("writing %s part: %w", p.contentType, err)
		}
		if err := pw.Close(); err != nil {
			return nil, fmt.Errorf("closing %s part: %w", p.contentType, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}

	return &Message{From: from, To: to, Subject: subject, raw: buf.Bytes()}, nil
}

// Bytes returns the rendered mail.
func (m *Message) Bytes() []byte {
	return m.raw
}

// WriteTo writes the rendered mail to w.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(m.raw)
	return int64(n), err
}
