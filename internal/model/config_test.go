package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *AppConfig {
	cfg := DefaultAppConfig()
	cfg.SMTP.Encryption = EncryptionTLS
	cfg.Students.List = []Student{{Name: "A", Email: "a@x.com"}}
	return cfg
}

func TestDefaultsWithRosterValidateInDevMode(t *testing.T) {
	require.NoError(t, validConfig().Validate(ModeDev))
}

func TestDefaultsFailStrictChecksInReleaseMode(t *testing.T) {
	err := validConfig().Validate(ModeRelease)
	require.Error(t, err)
	assert.Equal(t, "SMTP username and password are required in production", err.Error())
}

func TestAppConfigValidateOrder(t *testing.T) {
	cfg := validConfig()
	cfg.SMTP.Server = ""
	cfg.IMAP.Server = ""
	cfg.Log.Level = "loud"

	err := cfg.Validate(ModeDev)
	require.Error(t, err)
	assert.Equal(t, "SMTP server cannot be empty", err.Error())

	cfg.SMTP.Server = "smtp.example.com"
	err = cfg.Validate(ModeDev)
	require.Error(t, err)
	assert.Equal(t, "IMAP server cannot be empty", err.Error())

	cfg.IMAP.Server = "imap.example.com"
	err = cfg.Validate(ModeDev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid log level: loud")
}

func TestSMTPSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SMTPSettings)
		mode    Mode
		wantErr string
	}{
		{name: "defaults", mutate: func(*SMTPSettings) {}, mode: ModeDev},
		{name: "empty server", mutate: func(s *SMTPSettings) { s.Server = "" }, mode: ModeDev, wantErr: "SMTP server cannot be empty"},
		{name: "zero port", mutate: func(s *SMTPSettings) { s.Port = 0 }, mode: ModeDev, wantErr: "SMTP port must be greater than 0"},
		{name: "missing encryption", mutate: func(s *SMTPSettings) { s.Encryption = "" }, mode: ModeDev, wantErr: "SMTP encryption must be one of"},
		{name: "release without credentials", mutate: func(*SMTPSettings) {}, mode: ModeRelease, wantErr: "SMTP username and password are required in production"},
		{name: "release with username only", mutate: func(s *SMTPSettings) { s.Username = "u" }, mode: ModeRelease, wantErr: "SMTP username and password are required in production"},
		{
			name: "release with credentials",
			mutate: func(s *SMTPSettings) {
				s.Username = "u"
				s.Password = "p"
			},
			mode: ModeRelease,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppConfig().SMTP
			s.Encryption = EncryptionStartTLS
			tt.mutate(&s)

			err := s.Validate(tt.mode)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "smtp_config", verr.Section)
		})
	}
}

func TestMailRetrievalSettingsValidate(t *testing.T) {
	s := DefaultAppConfig().IMAP
	require.NoError(t, s.Validate(ModeDev))

	err := s.Validate(ModeRelease)
	require.EqualError(t, err, "IMAP username and password are required in production")

	s.Username, s.Password = "u", "p"
	require.NoError(t, s.Validate(ModeRelease))

	s.OutDir = ""
	require.EqualError(t, s.Validate(ModeRelease), "Output directory cannot be empty")

	s = DefaultAppConfig().IMAP
	s.Port = 0
	require.EqualError(t, s.Validate(ModeDev), "IMAP port must be greater than 0")
}

func TestStudentSettingsValidate(t *testing.T) {
	empty := StudentSettings{}
	require.NoError(t, empty.Validate(ModeDev))
	require.EqualError(t, empty.Validate(ModeRelease), "Student list cannot be empty in production")

	bad := StudentSettings{List: []Student{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "not-an-email"},
	}}
	err := bad.Validate(ModeDev)
	require.EqualError(t, err, "Invalid email format for student: Bob")
}

func TestLoggingSettingsValidate(t *testing.T) {
	for _, lvl := range []string{"error", "WARN", "Info", "debug", "TRACE"} {
		require.NoError(t, LoggingSettings{Level: lvl}.Validate(ModeDev), lvl)
	}

	err := LoggingSettings{Level: "verbose"}.Validate(ModeDev)
	require.EqualError(t, err,
		"Invalid log level: verbose. Valid levels are: error, warn, info, debug, trace")
	require.Error(t, LoggingSettings{}.Validate(ModeDev))
}

func TestSMTPSettingsSender(t *testing.T) {
	s := SMTPSettings{Username: "teacher@example.com"}
	assert.Equal(t, "teacher@example.com", s.Sender())

	s.From = "noreply@example.com"
	assert.Equal(t, "noreply@example.com", s.Sender())
}
