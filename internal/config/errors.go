package config

import "errors"

// ConfigError reports that the configuration could not be resolved: a
// document is missing or unparseable, or the merged result failed
// validation.
type ConfigError struct {
	// Dir is the configuration directory that was searched.
	Dir string

	// Reason is the human-readable cause, suitable for the console.
	Reason string

	Err error
}

func (e *ConfigError) Error() string {
	return e.Reason
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err (or any error in its chain) is a
// ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}
