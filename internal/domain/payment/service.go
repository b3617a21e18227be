package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

type StoreAPI interface {
	Values(ctx context.Context, userID string) (map[string]string, error)
	Upsert(ctx context.Context, userID string, values map[string]string) error
}

var _ StoreAPI = (*Store)(nil)

// Sealer encrypts credential values at rest.
type Sealer interface {
	SealString(value string) (string, error)
	OpenString(value string) (string, error)
}

const maskPrefix = "********"

type Service struct {
	store   StoreAPI
	crypto  Sealer
	secrets map[string]bool
}

func NewService(store StoreAPI, crypto Sealer) *Service {
	return &Service{store: store, crypto: crypto, secrets: SecretSettingKeys()}
}

// Settings returns the user's decrypted payment settings.
func (s *Service) Settings(ctx context.Context, userID string) (map[string]string, error) {
	stored, err := s.store.Values(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(stored))
	for key, value := range stored {
		if s.secrets[key] && value != "" {
			plain, err := s.crypto.OpenString(value)
			if err != nil {
				slog.Warn("payment secret decrypt failed", "key", key, "err", err)
				continue
			}
			value = plain
		}
		out[key] = value
	}
	return out, nil
}

// Masked returns settings safe to send to a client: credentials keep only
// their last four characters.
func (s *Service) Masked(ctx context.Context, userID string) (map[string]string, error) {
	values, err := s.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}
	for key, value := range values {
		if s.secrets[key] {
			values[key] = Mask(value)
		}
	}
	return values, nil
}

func Mask(value string) string {
	if value == "" {
		return ""
	}
	runes := []rune(value)
	if len(runes) <= 4 {
		return maskPrefix
	}
	return maskPrefix + string(runes[len(runes)-4:])
}

func isMasked(value string) bool {
	return strings.HasPrefix(value, maskPrefix)
}

// Update stores payment settings. Masked credential values echoed back by a
// client keep the stored secret. Every method left enabled must validate;
// problems are keyed by setting key.
func (s *Service) Update(ctx context.Context, userID string, values map[string]string) (map[string]string, error) {
	current, err := s.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]string, len(current)+len(values))
	for k, v := range current {
		merged[k] = v
	}
	changed := map[string]string{}
	problems := map[string]string{}
	for key, value := range values {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !knownKey(key) {
			problems[key] = "unknown payment setting"
			continue
		}
		if s.secrets[key] && isMasked(value) {
			continue
		}
		if strings.HasSuffix(key, "_mode") && value != "" && value != ModeSandbox && value != ModeLive {
			problems[key] = "must be sandbox or live"
			continue
		}
		merged[key] = value
		changed[key] = value
	}

	for _, d := range descriptors {
		if !IsEnabled(merged, d.Method) {
			continue
		}
		cfg, _ := BuildConfig(d.Method, merged)
		for _, f := range d.Fields {
			if f.Required && cfg.Values[f.Key] == "" {
				problems[d.SettingKey(f.Key)] = fmt.Sprintf("%s is required when %s is enabled", f.Label, d.Label)
			}
		}
	}
	if len(problems) > 0 {
		return problems, ErrInvalidSetting
	}

	toStore := make(map[string]string, len(changed))
	for key, value := range changed {
		if s.secrets[key] && value != "" {
			sealed, err := s.crypto.SealString(value)
			if err != nil {
				return nil, fmt.Errorf("seal %s: %w", key, err)
			}
			value = sealed
		}
		toStore[key] = value
	}
	if err := s.store.Upsert(ctx, userID, toStore); err != nil {
		return nil, fmt.Errorf("store payment settings: %w", err)
	}
	return nil, nil
}

// EnabledFor lists the methods the user has enabled and configured.
func (s *Service) EnabledFor(ctx context.Context, userID string) ([]Method, error) {
	values, err := s.Settings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return EnabledMethods(values), nil
}

// Config resolves one method of the user for use at checkout.
func (s *Service) Config(ctx context.Context, userID, method string) (Config, error) {
	values, err := s.Settings(ctx, userID)
	if err != nil {
		return Config{}, err
	}
	return Resolve(values, method)
}

func knownKey(key string) bool {
	for _, d := range descriptors {
		if key == d.EnabledKey() || (d.HasMode && key == d.ModeKey()) {
			return true
		}
		if strings.HasPrefix(key, d.Method+"_") {
			if _, ok := d.field(strings.TrimPrefix(key, d.Method+"_")); ok {
				return true
			}
		}
	}
	return false
}
