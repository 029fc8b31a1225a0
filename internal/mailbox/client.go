// Package mailbox checks access to the mail retrieval account. It only
// authenticates; messages are never fetched.
package mailbox

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/hsck/internal/model"
)

// AuthError is returned when the server rejects the configured
// credentials.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("IMAP authentication failed for %s: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// IsAuthError reports whether err (or any error in its chain) is an
// AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Client holds the connection parameters of the retrieval account.
type Client struct {
	addr     string
	username string
	password string
	tls      *tls.Config
}

// NewClient prepares a client for settings. The server is reached over
// implicit TLS.
func NewClient(settings model.MailRetrievalSettings) (*Client, error) {
	host := strings.TrimSpace(settings.Server)
	if host == "" {
		return nil, errors.New("IMAP server cannot be empty")
	}
	if settings.Port == 0 {
		return nil, fmt.Errorf("invalid IMAP port for %s", host)
	}
	return &Client{
		addr:     net.JoinHostPort(host, strconv.Itoa(int(settings.Port))),
		username: settings.Username,
		password: settings.Password,
		tls:      &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12},
	}, nil
}

// Addr returns the host:port the client dials.
func (c *Client) Addr() string {
	return c.addr
}

// Verify connects, logs in and logs out again.
func (c *Client) Verify(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.username == "" {
		return errors.New("IMAP username is not configured")
	}

	client, err := imapclient.DialTLS(c.addr, &imapclient.Options{TLSConfig: c.tls.Clone()})
	if err != nil {
		return fmt.Errorf("connecting to IMAP %s: %w", c.addr, err)
	}
	defer func() { _ = client.Close() }()

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		return &AuthError{Username: c.username, Err: err}
	}

	if err := client.Logout().Wait(); err != nil {
		return fmt.Errorf("logging out of IMAP %s: %w", c.addr, err)
	}
	return nil
}
