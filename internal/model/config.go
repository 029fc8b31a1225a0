package model

import (
	"fmt"
	"strings"
)

// Named defaults applied when a field is absent from every configuration
// document.
const (
	DefaultSMTPServer    = "smtp.163.com"
	DefaultSMTPPort      = 465
	DefaultIMAPServer    = "imap.qq.com"
	DefaultIMAPPort      = 993
	DefaultOutputDir     = "/out"
	DefaultLogLevel      = "info"
	DefaultConsoleOutput = false
)

// LogLevels lists the accepted logging levels, most to least severe.
var LogLevels = []string{"error", "warn", "info", "debug", "trace"}

// ValidationError reports the first configuration rule that a settings
// section violated.
type ValidationError struct {
	// Section is the configuration key group, e.g. "smtp_config".
	Section string

	// Reason is the human-readable description of the violated rule.
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(section, format string, args ...any) error {
	return &ValidationError{Section: section, Reason: fmt.Sprintf(format, args...)}
}

// SMTPSettings holds the outgoing mail server settings.
type SMTPSettings struct {
	Server     string     `mapstructure:"server" yaml:"server"`
	Port       uint16     `mapstructure:"port" yaml:"port"`
	Username   string     `mapstructure:"username" yaml:"username"`
	Password   string     `mapstructure:"password" yaml:"password"`
	Encryption Encryption `mapstructure:"encryption" yaml:"encryption"`

	// From overrides the sender address. When empty the username is used.
	From string `mapstructure:"from" yaml:"from"`
}

// Sender returns the address notifications are sent from.
func (s SMTPSettings) Sender() string {
	if s.From != "" {
		return s.From
	}
	return s.Username
}

// Validate checks the SMTP settings on their own.
func (s SMTPSettings) Validate(mode Mode) error {
	if s.Server == "" {
		return invalid("smtp_config", "SMTP server cannot be empty")
	}
	if s.Port == 0 {
		return invalid("smtp_config", "SMTP port must be greater than 0")
	}
	if !s.Encryption.Valid() {
		return invalid("smtp_config",
			"SMTP encryption must be one of: tls, starttls, none (got %q)", string(s.Encryption))
	}
	if mode.Strict() && (s.Username == "" || s.Password == "") {
		return invalid("smtp_config", "SMTP username and password are required in production")
	}
	return nil
}

// MailRetrievalSettings holds the IMAP mailbox settings used to collect
// submissions sent by mail.
type MailRetrievalSettings struct {
	Server   string `mapstructure:"server" yaml:"server"`
	Port     uint16 `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	OutDir   string `mapstructure:"out_dir" yaml:"out_dir"`
}

// Validate checks the mail retrieval settings on their own.
func (s MailRetrievalSettings) Validate(mode Mode) error {
	if s.Server == "" {
		return invalid("imap_config", "IMAP server cannot be empty")
	}
	if s.Port == 0 {
		return invalid("imap_config", "IMAP port must be greater than 0")
	}
	if mode.Strict() && (s.Username == "" || s.Password == "") {
		return invalid("imap_config", "IMAP username and password are required in production")
	}
	if s.OutDir == "" {
		return invalid("imap_config", "Output directory cannot be empty")
	}
	return nil
}

// StudentSettings holds the roster. List order is the configuration order
// and is preserved through scanning and notification.
type StudentSettings struct {
	List []Student `mapstructure:"list" yaml:"list"`
}

// Validate checks every student's address, then the roster size in
// strict mode.
func (s StudentSettings) Validate(mode Mode) error {
	for _, stu := range s.List {
		if err := stu.Validate(); err != nil {
			return err
		}
	}
	if mode.Strict() && len(s.List) == 0 {
		return invalid("stu_config", "Student list cannot be empty in production")
	}
	return nil
}

// LoggingSettings controls the log file and console side-channel.
type LoggingSettings struct {
	Level         string `mapstructure:"level" yaml:"level"`
	ConsoleOutput bool   `mapstructure:"console_output" yaml:"console_output"`
}

// Validate checks that Level names one of LogLevels, ignoring case.
func (s LoggingSettings) Validate(Mode) error {
	lvl := strings.ToLower(s.Level)
	for _, l := range LogLevels {
		if lvl == l {
			return nil
		}
	}
	return invalid("log_config",
		"Invalid log level: %s. Valid levels are: %s", s.Level, strings.Join(LogLevels, ", "))
}

// AppConfig is the top-level application configuration. It is built once
// at startup and treated as read-only afterwards.
type AppConfig struct {
	SMTP     SMTPSettings          `mapstructure:"smtp_config" yaml:"smtp_config"`
	IMAP     MailRetrievalSettings `mapstructure:"imap_config" yaml:"imap_config"`
	Students StudentSettings       `mapstructure:"stu_config" yaml:"stu_config"`
	Log      LoggingSettings       `mapstructure:"log_config" yaml:"log_config"`
}

// DefaultAppConfig returns a configuration holding only the named
// defaults. Encryption has no default and must come from a document.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		SMTP: SMTPSettings{
			Server: DefaultSMTPServer,
			Port:   DefaultSMTPPort,
		},
		IMAP: MailRetrievalSettings{
			Server: DefaultIMAPServer,
			Port:   DefaultIMAPPort,
			OutDir: DefaultOutputDir,
		},
		Students: StudentSettings{List: []Student{}},
		Log: LoggingSettings{
			Level:         DefaultLogLevel,
			ConsoleOutput: DefaultConsoleOutput,
		},
	}
}

// Validate runs the section validators in order (SMTP, retrieval, roster,
// logging) and returns the first failure.
func (c *AppConfig) Validate(mode Mode) error {
	validators := []func(Mode) error{
		c.SMTP.Validate,
		c.IMAP.Validate,
		c.Students.Validate,
		c.Log.Validate,
	}
	for _, validate := range validators {
		if err := validate(mode); err != nil {
			return err
		}
	}
	return nil
}
