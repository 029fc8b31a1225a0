// Package config resolves the application configuration from layered
// documents in a configuration directory and validates the result.
//
// Documents are looked up by base name with any extension viper supports
// (toml, yaml, json, ...). They are applied in this order, later ones
// overriding earlier ones field by field:
//
//  1. default       required
//  2. {environment} optional
//  3. local         optional, meant for untracked overrides
package config

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/nhle/hsck/internal/credential"
	"github.com/nhle/hsck/internal/model"
)

const (
	// DefaultEnvironment is used when no environment name is given.
	DefaultEnvironment = "dev"

	// DefaultDir is used when no configuration directory is given.
	DefaultDir = "cfg"

	baseDocument  = "default"
	localDocument = "local"
)

// SecretSource looks up credentials that were left out of the
// configuration documents. It returns an error wrapping
// credential.ErrNotFound when no secret is stored under key.
type SecretSource interface {
	Get(key string) (string, error)
}

type options struct {
	mode    model.Mode
	fs      afero.Fs
	secrets SecretSource
	logger  *zap.Logger
}

// Option customizes Load.
type Option func(*options)

// WithMode sets the run mode used for validation. The default is dev.
func WithMode(m model.Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithFs reads documents from fs instead of the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *options) { o.fs = fs }
}

// WithSecrets fills empty SMTP and IMAP passwords from s.
func WithSecrets(s SecretSource) Option {
	return func(o *options) { o.secrets = s }
}

// WithLogger sets the logger used to report which documents were applied.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Load reads the default, environment and local documents from dir,
// merges them, decodes the result and validates it.
func Load(environment, dir string, opts ...Option) (*model.AppConfig, error) {
	o := options{
		mode:   model.ModeDev,
		fs:     afero.NewOsFs(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if environment == "" {
		environment = DefaultEnvironment
	}
	if dir == "" {
		dir = DefaultDir
	}

	log := o.logger.With(zap.String("environment", environment), zap.String("dir", dir))
	log.Info("loading configuration")

	v := viper.New()
	v.SetFs(o.fs)
	v.AddConfigPath(dir)
	setDefaults(v)

	v.SetConfigName(baseDocument)
	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigError{
			Dir:    dir,
			Reason: fmt.Sprintf("reading %s config in %s: %v", baseDocument, dir, err),
			Err:    err,
		}
	}
	log.Debug("applied config document", zap.String("file", v.ConfigFileUsed()))

	for _, name := range []string{environment, localDocument} {
		v.SetConfigName(name)
		if err := v.MergeInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				log.Debug("optional config document not found", zap.String("document", name))
				continue
			}
			return nil, &ConfigError{
				Dir:    dir,
				Reason: fmt.Sprintf("reading %s config in %s: %v", name, dir, err),
				Err:    err,
			}
		}
		log.Debug("applied config document", zap.String("file", v.ConfigFileUsed()))
	}

	cfg := model.DefaultAppConfig()
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		portRangeHookFunc(),
	))
	if err := v.Unmarshal(cfg, hook); err != nil {
		return nil, &ConfigError{
			Dir:    dir,
			Reason: fmt.Sprintf("parsing config in %s: %v", dir, err),
			Err:    err,
		}
	}
	if cfg.Students.List == nil {
		cfg.Students.List = []model.Student{}
	}

	if o.secrets != nil {
		if err := fillSecrets(cfg, o.secrets); err != nil {
			return nil, &ConfigError{Dir: dir, Reason: err.Error(), Err: err}
		}
	}

	if err := cfg.Validate(o.mode); err != nil {
		return nil, &ConfigError{Dir: dir, Reason: err.Error(), Err: err}
	}

	log.Info("configuration loaded",
		zap.String("mode", string(o.mode)),
		zap.Int("students", len(cfg.Students.List)),
	)
	return cfg, nil
}

// portRangeHookFunc rejects values that would not fit a uint16 port field.
// Without it the weakly typed decode narrows 70000 to 4464 and -1 to 65535.
func portRangeHookFunc() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to.Kind() != reflect.Uint16 {
			return data, nil
		}

		var n int64
		switch v := data.(type) {
		case int:
			n = int64(v)
		case int8:
			n = int64(v)
		case int16:
			n = int64(v)
		case int32:
			n = int64(v)
		case int64:
			n = v
		case uint:
			if uint64(v) > math.MaxInt64 {
				n = math.MaxInt64
			} else {
				n = int64(v)
			}
		case uint8:
			n = int64(v)
		case uint16:
			n = int64(v)
		case uint32:
			n = int64(v)
		case uint64:
			if v > math.MaxInt64 {
				n = math.MaxInt64
			} else {
				n = int64(v)
			}
		case float32:
			n = int64(v)
		case float64:
			n = int64(v)
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return data, nil
			}
			n = parsed
		default:
			return data, nil
		}

		if n < 1 || n > math.MaxUint16 {
			return nil, fmt.Errorf("port %d out of range 1..%d", n, math.MaxUint16)
		}
		return data, nil
	}
}

// setDefaults registers the named defaults so that fields absent from
// every document still resolve.
func setDefaults(v *viper.Viper) {
	v.SetDefault("smtp_config.server", model.DefaultSMTPServer)
	v.SetDefault("smtp_config.port", model.DefaultSMTPPort)
	v.SetDefault("smtp_config.username", "")
	v.SetDefault("smtp_config.password", "")
	v.SetDefault("imap_config.server", model.DefaultIMAPServer)
	v.SetDefault("imap_config.port", model.DefaultIMAPPort)
	v.SetDefault("imap_config.username", "")
	v.SetDefault("imap_config.password", "")
	v.SetDefault("imap_config.out_dir", model.DefaultOutputDir)
	v.SetDefault("log_config.level", model.DefaultLogLevel)
	v.SetDefault("log_config.console_output", model.DefaultConsoleOutput)
}

// fillSecrets replaces empty passwords with stored ones.
func fillSecrets(cfg *model.AppConfig, s SecretSource) error {
	lookup := func(kind, username string) (string, error) {
		if username == "" {
			return "", nil
		}
		secret, err := s.Get(credential.Key(kind, username))
		if errors.Is(err, credential.ErrNotFound) {
			return "", nil
		}
		if err != nil {
			return "", fmt.Errorf("looking up %s password for %s: %w", kind, username, err)
		}
		return secret, nil
	}

	if cfg.SMTP.Password == "" {
		pw, err := lookup(credential.KindSMTP, cfg.SMTP.Username)
		if err != nil {
			return err
		}
		cfg.SMTP.Password = pw
	}
	if cfg.IMAP.Password == "" {
		pw, err := lookup(credential.KindIMAP, cfg.IMAP.Username)
		if err != nil {
			return err
		}
		cfg.IMAP.Password = pw
	}
	return nil
}
