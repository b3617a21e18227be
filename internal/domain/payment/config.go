package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	ModeSandbox = "sandbox"
	ModeLive    = "live"
)

// Config is the assembled configuration of one gateway, keyed by field key.
type Config struct {
	Method string            `json:"method"`
	Label  string            `json:"label"`
	Mode   string            `json:"mode,omitempty"`
	Values map[string]string `json:"values"`
}

type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// BuildConfig assembles a gateway config from flat payment settings.
func BuildConfig(method string, settings map[string]string) (Config, error) {
	d, ok := Lookup(method)
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
	cfg := Config{Method: d.Method, Label: d.Label, Values: make(map[string]string, len(d.Fields))}
	for _, f := range d.Fields {
		if v := strings.TrimSpace(settings[d.SettingKey(f.Key)]); v != "" {
			cfg.Values[f.Key] = v
		}
	}
	if d.HasMode {
		cfg.Mode = NormalizeMode(settings[d.ModeKey()])
	}
	return cfg, nil
}

// ValidateConfig checks that every required field of the method is present.
// An unknown method is invalid with a single error.
func ValidateConfig(method string, values map[string]string) Validation {
	d, ok := Lookup(method)
	if !ok {
		return Validation{Valid: false, Errors: []string{fmt.Sprintf("Unsupported payment method: %s", method)}}
	}
	errs := []string{}
	for _, f := range d.Fields {
		if f.Required && strings.TrimSpace(values[f.Key]) == "" {
			errs = append(errs, fmt.Sprintf("%s %s is required", d.Label, f.Label))
		}
	}
	return Validation{Valid: len(errs) == 0, Errors: errs}
}

func NormalizeMode(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), ModeLive) {
		return ModeLive
	}
	return ModeSandbox
}

func IsEnabled(settings map[string]string, method string) bool {
	switch strings.ToLower(strings.TrimSpace(settings[method+"_enabled"])) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

type Method struct {
	Method  string `json:"method"`
	Label   string `json:"label"`
	Mode    string `json:"mode,omitempty"`
	Offline bool   `json:"offline"`
}

// EnabledMethods lists methods switched on in settings whose configuration
// validates, in descriptor order.
func EnabledMethods(settings map[string]string) []Method {
	out := []Method{}
	for _, d := range Descriptors() {
		if !IsEnabled(settings, d.Method) {
			continue
		}
		cfg, err := BuildConfig(d.Method, settings)
		if err != nil || !ValidateConfig(d.Method, cfg.Values).Valid {
			continue
		}
		out = append(out, Method{Method: d.Method, Label: d.Label, Mode: cfg.Mode, Offline: d.Offline})
	}
	return out
}

// Resolve returns the usable config of an enabled, valid method.
func Resolve(settings map[string]string, method string) (Config, error) {
	cfg, err := BuildConfig(method, settings)
	if err != nil {
		return Config{}, err
	}
	if !IsEnabled(settings, method) {
		return Config{}, fmt.Errorf("%w: %s", ErrMethodDisabled, method)
	}
	if v := ValidateConfig(method, cfg.Values); !v.Valid {
		return Config{}, &ConfigError{Method: method, Errors: v.Errors}
	}
	return cfg, nil
}

// UserMessage turns any payment-layer failure into text safe to show an end
// user; details stay in the logs.
func UserMessage(err error) string {
	var cfgErr *ConfigError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownMethod):
		return "The selected payment method is not supported."
	case errors.Is(err, ErrMethodDisabled):
		return "The selected payment method is currently unavailable."
	case errors.As(err, &cfgErr), errors.Is(err, ErrNotConfigured):
		return "The selected payment method is not configured correctly. Please contact support."
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "The payment service did not respond in time. Please try again."
	default:
		return "Payment failed. Please try again or contact support."
	}
}
