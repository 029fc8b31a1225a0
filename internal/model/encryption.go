package model

import (
	"fmt"
	"strings"
)

// Encryption selects how the SMTP connection is secured.
type Encryption string

const (
	EncryptionTLS      Encryption = "tls"
	EncryptionStartTLS Encryption = "starttls"
	EncryptionNone     Encryption = "none"
)

// Valid reports whether e is one of the known modes.
func (e Encryption) Valid() bool {
	switch e {
	case EncryptionTLS, EncryptionStartTLS, EncryptionNone:
		return true
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler so that mapstructure
// decodes configuration values case-insensitively.
func (e *Encryption) UnmarshalText(text []byte) error {
	v := Encryption(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("unknown SMTP encryption %q (want tls, starttls or none)", string(text))
	}
	*e = v
	return nil
}

func (e Encryption) String() string {
	return string(e)
}
