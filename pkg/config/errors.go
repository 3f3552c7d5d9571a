package config

import (
	stderrors "errors"
	"fmt"
)

// ConfigurationError is returned when required startup configuration is missing or
// invalid. It is fatal: nothing is served until it is fixed.
type ConfigurationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("invalid configuration %q: %s", e.Key, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return stderrors.As(err, &ce)
}
