package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/nhle/hsck/internal/model"
)

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPTransport delivers each message over a fresh SMTP connection.
type SMTPTransport struct {
	addr       string
	encryption model.Encryption
	username   string
	password   string
	tlsConfig  *tls.Config
}

var _ Transport = (*SMTPTransport)(nil)

// NewSMTPTransport prepares the connection parameters for settings. It
// fails when the server name cannot be used for TLS verification or the
// encryption mode is unknown.
func NewSMTPTransport(settings model.SMTPSettings) (*SMTPTransport, error) {
	host := strings.TrimSpace(settings.Server)
	if host == "" {
		return nil, errors.New("creating TLS parameters: empty server name")
	}
	if settings.Port == 0 {
		return nil, fmt.Errorf("invalid SMTP port for %s", host)
	}

	enc := settings.Encryption
	if enc == "" {
		enc = model.EncryptionTLS
	}
	if !enc.Valid() {
		return nil, fmt.Errorf("unknown SMTP encryption %q", string(enc))
	}

	return &SMTPTransport{
		addr:       net.JoinHostPort(host, strconv.Itoa(int(settings.Port))),
		encryption: enc,
		username:   settings.Username,
		password:   settings.Password,
		tlsConfig: &tls.Config{
			ServerName: host,
			MinVersion: tls.VersionTLS12,
		},
	}, nil
}

// Addr returns the host:port the transport dials.
func (t *SMTPTransport) Addr() string {
	return t.addr
}

func (t *SMTPTransport) dial() (*smtp.Client, error) {
	switch t.encryption {
	case model.EncryptionStartTLS:
		return smtp.DialStartTLS(t.addr, t.tlsConfig.Clone())
	case model.EncryptionNone:
		return smtp.Dial(t.addr)
	default:
		return smtp.DialTLS(t.addr, t.tlsConfig.Clone())
	}
}

// Send dials the server, authenticates when a username is configured and
// submits msg to its single recipient.
func (t *SMTPTransport) Send(ctx context.Context, msg *Message) error {
	to := msg.To.Address
	if err := ctx.Err(); err != nil {
		return &SendError{Kind: KindTransport, Recipient: to, Err: err}
	}

	client, err := t.dial()
	if err != nil {
		return &SendError{
			Kind:      KindTransport,
			Recipient: to,
			Err:       fmt.Errorf("connecting to SMTP %s (%s): %w", t.addr, t.encryption, err),
		}
	}
	defer client.Close()

	if t.username != "" {
		auth := sasl.NewPlainClient("", t.username, t.password)
		if err := client.Auth(auth); err != nil {
			return &SendError{Kind: KindTransport, Recipient: to, Err: fmt.Errorf("SMTP auth: %w", err)}
		}
	}

	if err := client.SendMail(msg.From.Address, []string{to}, bytes.NewReader(msg.Bytes())); err != nil {
		return &SendError{Kind: KindDelivery, Recipient: to, Err: fmt.Errorf("SMTP send: %w", err)}
	}

	if err := client.Quit(); err != nil {
		return &SendError{Kind: KindDelivery, Recipient: to, Err: fmt.Errorf("SMTP QUIT: %w", err)}
	}
	return nil
}

// Verify dials the server, authenticates when a username is configured
// and quits without sending anything.
func (t *SMTPTransport) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &SendError{Kind: KindTransport, Err: err}
	}

	client, err := t.dial()
	if err != nil {
		return &SendError{Kind: KindTransport, Err: fmt.Errorf("connecting to SMTP %s (%s): %w", t.addr, t.encryption, err)}
	}
	defer client.Close()

	if t.username != "" {
		if err := client.Auth(sasl.NewPlainClient("", t.username, t.password)); err != nil {
			return &SendError{Kind: KindTransport, Err: fmt.Errorf("SMTP auth: %w", err)}
		}
	}
	if err := client.Quit(); err != nil {
		return &SendError{Kind: KindTransport, Err: fmt.Errorf("SMTP QUIT: %w", err)}
	}
	return nil
}

// FileTransport writes messages as .eml files into a directory instead of
// sending them. It is used for dry runs.
type FileTransport struct {
	dir string
	now func() time.Time

	mu  sync.Mutex
	seq int
}

var _ Transport = (*FileTransport)(nil)

// NewFileTransport returns a transport saving messages under dir. The
// directory is created on first use.
func NewFileTransport(dir string) *FileTransport {
	return &FileTransport{dir: dir, now: time.Now}
}

// Dir returns the output directory.
func (t *FileTransport) Dir() string {
	return t.dir
}

// Send writes msg to <dir>/<timestamp>_<seq>_<recipient>.eml.
func (t *FileTransport) Send(ctx context.Context, msg *Message) error {
	to := msg.To.Address
	if err := ctx.Err(); err != nil {
		return &SendError{Kind: KindTransport, Recipient: to, Err: err}
	}

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return &SendError{Kind: KindTransport, Recipient: to, Err: fmt.Errorf("creating directory: %w", err)}
	}

	t.mu.Lock()
	t.seq++
	seq := t.seq
	t.mu.Unlock()

	name := fmt.Sprintf("%s_%03d_%s.eml", t.now().Format("2006_01_02_150405"), seq, sanitizeFilename(to))
	path := filepath.Join(t.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &SendError{Kind: KindDelivery, Recipient: to, Err: fmt.Errorf("creating %s: %w", path, err)}
	}
	if _, err := msg.WriteTo(f); err != nil {
		_ = f.Close()
		return &SendError{Kind: KindDelivery, Recipient: to, Err: fmt.Errorf("writing %s: %w", path, err)}
	}
	if err := f.Close(); err != nil {
		return &SendError{Kind: KindDelivery, Recipient: to, Err: fmt.Errorf("closing %s: %w", path, err)}
	}
	return nil
}

// sanitizeRegex removes filesystem-unsafe characters from filenames.
var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9\-_.@]`)

func sanitizeFilename(s string) string {
	s = sanitizeRegex.ReplaceAllString(s, "_")
	const maxLength = 100
	if len(s) > maxLength {
		s = s[:maxLength]
	}
	if s == "" {
		s = "recipient"
	}
	return strings.ToLower(s)
}
