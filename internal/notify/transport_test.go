package notify_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/hsck/internal/model"
	"github.com/nhle/hsck/internal/notify"
)

type delivery struct {
	From string
	To   []string
	Data []byte
}

// smtpBackend is an in-memory SMTP server accepting PLAIN auth for one
// fixed account.
type smtpBackend struct {
	user, pass string

	mu         sync.Mutex
	deliveries []delivery
	authed     []string
}

func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{backend: b}, nil
}

func (b *smtpBackend) Deliveries() []delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]delivery(nil), b.deliveries...)
}

func (b *smtpBackend) Authed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.authed...)
}

type smtpSession struct {
	backend *smtpBackend
	from    string
	to      []string
}

func (s *smtpSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *smtpSession) Auth(_ string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(_, username, password string) error {
		if username != s.backend.user || password != s.backend.pass {
			return errors.New("invalid credentials")
		}
		s.backend.mu.Lock()
		s.backend.authed = append(s.backend.authed, username)
		s.backend.mu.Unlock()
		return nil
	}), nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.from = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if strings.HasSuffix(to, "@rejected.example.com") {
		return &smtp.SMTPError{Code: 550, EnhancedCode: smtp.EnhancedCode{5, 1, 1}, Message: "no such user"}
	}
	s.to = append(s.to, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.mu.Lock()
	s.backend.deliveries = append(s.backend.deliveries, delivery{From: s.from, To: s.to, Data: data})
	s.backend.mu.Unlock()
	return nil
}

func (s *smtpSession) Reset() {
	s.from = ""
	s.to = nil
}

func (s *smtpSession) Logout() error { return nil }

// startSMTPServer serves be on a loopback port and returns settings that
// point at it without encryption.
func startSMTPServer(t *testing.T, be *smtpBackend) model.SMTPSettings {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := smtp.NewServer(be)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true
	srv.ReadTimeout = 5 * time.Second
	srv.WriteTimeout = 5 * time.Second

	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Close() })

	return model.SMTPSettings{
		Server:     "127.0.0.1",
		Port:       uint16(ln.Addr().(*net.TCPAddr).Port),
		Encryption: model.EncryptionNone,
	}
}

func TestNewSMTPTransport(t *testing.T) {
	tests := []struct {
		name     string
		settings model.SMTPSettings
		wantAddr string
		wantErr  string
	}{
		{
			name:     "implicit tls by default",
			settings: model.SMTPSettings{Server: "smtp.163.com", Port: 465},
			wantAddr: "smtp.163.com:465",
		},
		{
			name:     "starttls",
			settings: model.SMTPSettings{Server: " smtp.test.com ", Port: 587, Encryption: model.EncryptionStartTLS},
			wantAddr: "smtp.test.com:587",
		},
		{
			name:     "empty server",
			settings: model.SMTPSettings{Port: 465},
			wantErr:  "empty server name",
		},
		{
			name:     "zero port",
			settings: model.SMTPSettings{Server: "smtp.test.com"},
			wantErr:  "invalid SMTP port",
		},
		{
			name:     "unknown encryption",
			settings: model.SMTPSettings{Server: "smtp.test.com", Port: 25, Encryption: "ssl"},
			wantErr:  "unknown SMTP encryption",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := notify.NewSMTPTransport(tt.settings)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAddr, tr.Addr())
		})
	}
}

func TestSMTPTransportDelivers(t *testing.T) {
	be := &smtpBackend{user: "teacher@example.com", pass: "secret"}
	settings := startSMTPServer(t, be)
	settings.Username = "teacher@example.com"
	settings.Password = "secret"

	n, err := notify.New(settings.Sender(), settings, notify.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	require.NoError(t, n.NotifyStudent(context.Background(), "hw1", model.Student{Name: "A", Email: "a@x.com"}))

	got := be.Deliveries()
	require.Len(t, got, 1)
	assert.Equal(t, "teacher@example.com", got[0].From)
	assert.Equal(t, []string{"a@x.com"}, got[0].To)
	assert.Equal(t, []string{"teacher@example.com"}, be.Authed())

	parsed := parseMail(t, got[0].Data)
	assert.Equal(t, notify.ReminderSubject, parsed.Subject)
	assert.Contains(t, parsed.Text, "<hw1>")
}

func TestSMTPTransportSkipsAuthWithoutUsername(t *testing.T) {
	be := &smtpBackend{}
	settings := startSMTPServer(t, be)

	n, err := notify.New("noreply@example.com", settings)
	require.NoError(t, err)

	require.NoError(t, n.Send(context.Background(), "b@x.com", "s", "t", "<p>h</p>"))
	assert.Len(t, be.Deliveries(), 1)
	assert.Empty(t, be.Authed())
}

func TestSMTPTransportRejectedRecipient(t *testing.T) {
	be := &smtpBackend{}
	settings := startSMTPServer(t, be)

	n, err := notify.New("noreply@example.com", settings)
	require.NoError(t, err)

	err = n.Send(context.Background(), "ghost@rejected.example.com", "s", "t", "h")
	require.Error(t, err)
	assert.Equal(t, notify.KindDelivery, notify.KindOf(err))

	var smtpErr *smtp.SMTPError
	require.ErrorAs(t, err, &smtpErr)
	assert.Equal(t, 550, smtpErr.Code)
	assert.Empty(t, be.Deliveries())
}

func TestSMTPTransportBadCredentials(t *testing.T) {
	be := &smtpBackend{user: "teacher@example.com", pass: "secret"}
	settings := startSMTPServer(t, be)
	settings.Username = "teacher@example.com"
	settings.Password = "wrong"

	n, err := notify.New("teacher@example.com", settings)
	require.NoError(t, err)

	err = n.Send(context.Background(), "a@x.com", "s", "t", "h")
	require.Error(t, err)
	assert.Equal(t, notify.KindTransport, notify.KindOf(err))
	assert.Contains(t, err.Error(), "SMTP auth")
}

func TestSMTPTransportUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	n, err := notify.New("noreply@example.com", model.SMTPSettings{
		Server: "127.0.0.1", Port: uint16(port), Encryption: model.EncryptionNone,
	}, notify.WithLogger(zap.NewNop()))
	require.NoError(t, err)

	err = n.Send(context.Background(), "a@x.com", "s", "t", "h")
	require.Error(t, err)
	assert.Equal(t, notify.KindTransport, notify.KindOf(err))
	assert.Contains(t, err.Error(), "connecting to SMTP 127.0.0.1:")
}

func TestSMTPTransportCancelledContext(t *testing.T) {
	tr, err := notify.NewSMTPTransport(model.SMTPSettings{Server: "smtp.test.com", Port: 465})
	require.NoError(t, err)
	n, err := notify.New("noreply@example.com", model.SMTPSettings{}, notify.WithTransport(tr))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = n.Send(ctx, "a@x.com", "s", "t", "h")
	assert.Equal(t, notify.KindTransport, notify.KindOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFileTransportWritesEML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "outbox")
	tr := notify.NewFileTransport(dir)
	assert.Equal(t, dir, tr.Dir())

	n, err := notify.New("teacher@example.com", model.SMTPSettings{}, notify.WithTransport(tr),
		notify.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)

	results := n.NotifyAll(context.Background(), "hw1", []model.Student{
		{Name: "A", Email: "a@x.com"},
		{Name: "B", Email: "B+tag@x.com"},
	})
	for _, r := range results {
		require.NoError(t, r.Err)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, strings.HasSuffix(entries[0].Name(), "_001_a@x.com.eml"), entries[0].Name())
	assert.True(t, strings.HasSuffix(entries[1].Name(), "_002_b_tag@x.com.eml"), entries[1].Name())

	raw, err := os.ReadFile(filepath.Join(dir, entries[1].Name()))
	require.NoError(t, err)
	parsed := parseMail(t, raw)
	assert.Equal(t, []string{"B+tag@x.com"}, parsed.To)
	assert.Contains(t, parsed.HTML, "<strong>hw1</strong>")
}

func TestSMTPTransportVerify(t *testing.T) {
	be := &smtpBackend{user: "teacher@example.com", pass: "secret"}
	settings := startSMTPServer(t, be)
	settings.Username = "teacher@example.com"

	settings.Password = "secret"
	tr, err := notify.NewSMTPTransport(settings)
	require.NoError(t, err)
	require.NoError(t, tr.Verify(context.Background()))
	assert.Empty(t, be.Deliveries())

	settings.Password = "wrong"
	tr, err = notify.NewSMTPTransport(settings)
	require.NoError(t, err)
	err = tr.Verify(context.Background())
	assert.Equal(t, notify.KindTransport, notify.KindOf(err))
}

func TestFileTransportSavesRenderedBytes(t *testing.T) {
	msg, err := notify.NewMessage(
		&mail.Address{Address: "teacher@example.com"},
		&mail.Address{Name: "张三", Address: "zs@example.com"},
		"s", "text body", "<p>html body</p>", fixedNow)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.EqualValues(t, len(msg.Bytes()), n)
	assert.Equal(t, msg.Bytes(), buf.Bytes())

	dir := t.TempDir()
	tr := notify.NewFileTransport(dir)
	require.NoError(t, tr.Send(context.Background(), msg))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	raw, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, msg.Bytes(), raw)
}

func TestFileTransportUnwritableDir(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "outbox")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	msg, err := notify.NewMessage(&mail.Address{Address: "t@example.com"}, &mail.Address{Address: "a@x.com"},
		"s", "t", "h", fixedNow)
	require.NoError(t, err)

	err = notify.NewFileTransport(blocker).Send(context.Background(), msg)
	require.Error(t, err)
	assert.Equal(t, notify.KindTransport, notify.KindOf(err))
}
