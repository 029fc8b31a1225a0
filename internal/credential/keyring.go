package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "hsck"

// Credential kinds used to namespace keyring entries.
const (
	KindSMTP = "smtp"
	KindIMAP = "imap"
)

// ErrNotFound is returned when no credential is stored under a key.
var ErrNotFound = errors.New("credential not found")

// Key returns the keyring key for a mail account password.
func Key(kind, username string) string {
	return kind + ":" + username
}

// Store reads and writes credentials in the system keyring.
type Store struct {
	config keyring.Config
	open   func(keyring.Config) (keyring.Keyring, error)
}

// NewStore returns a Store backed by the OS keychain, falling back to an
// encrypted file under ~/.config/hsck/credentials.
func NewStore() *Store {
	return &Store{
		config: keyring.Config{
			ServiceName: serviceName,
			AllowedBackends: []keyring.BackendType{
				keyring.KeychainBackend,
				keyring.SecretServiceBackend,
				keyring.WinCredBackend,
				keyring.PassBackend,
				keyring.FileBackend,
			},
			FileDir:                  "~/.config/hsck/credentials",
			FilePasswordFunc:         keyring.FixedStringPrompt("hsck-file-key"),
			KeychainTrustApplication: true,
		},
		open: keyring.Open,
	}
}

// NewStoreFromKeyring wraps an already opened keyring, e.g.
// keyring.NewArrayKeyring in tests.
func NewStoreFromKeyring(ring keyring.Keyring) *Store {
	return &Store{
		open: func(keyring.Config) (keyring.Keyring, error) { return ring, nil },
	}
}

// openKeyring returns a configured keyring instance.
func (s *Store) openKeyring() (keyring.Keyring, error) {
	ring, err := s.open(s.config)
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func (s *Store) Get(key string) (string, error) {
	ring, err := s.openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", fmt.Errorf("getting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func (s *Store) Set(key string, value string) error {
	ring, err := s.openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "hsck " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func (s *Store) Delete(key string) error {
	ring, err := s.openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
