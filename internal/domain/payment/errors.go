package payment

import (
	"errors"
	"strings"
)

var (
	ErrUnknownMethod  = errors.New("unknown payment method")
	ErrMethodDisabled = errors.New("payment method is disabled")
	ErrNotConfigured  = errors.New("payment method is not configured")
	ErrInvalidSetting = errors.New("invalid payment setting")
)

// ConfigError carries the validation messages of a rejected configuration.
type ConfigError struct {
	Method string
	Errors []string
}

func (e *ConfigError) Error() string {
	return e.Method + ": " + strings.Join(e.Errors, "; ")
}

func (e *ConfigError) Unwrap() error { return ErrNotConfigured }
