package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfigStripeEmpty(t *testing.T) {
	v := ValidateConfig("stripe", map[string]string{})
	assert.False(t, v.Valid)
	assert.Len(t, v.Errors, 2)
}

func TestValidateConfigUnknownMethod(t *testing.T) {
	v := ValidateConfig("carrier-pigeon", map[string]string{"key": "x"})
	assert.False(t, v.Valid)
	assert.Len(t, v.Errors, 1)
}

func TestDescriptorTableCoversGateways(t *testing.T) {
	all := Descriptors()
	gateways := 0
	seen := map[string]bool{}
	for _, d := range all {
		require.False(t, seen[d.Method], "duplicate method %s", d.Method)
		seen[d.Method] = true
		if !d.Offline {
			gateways++
		}
		required := 0
		for _, f := range d.Fields {
			if f.Required {
				required++
			}
		}
		assert.Positive(t, required, "%s needs at least one required field", d.Method)
	}
	assert.GreaterOrEqual(t, gateways, 25)
	assert.Equal(t, MethodBankTransfer, all[0].Method)
}

func TestBuildConfig(t *testing.T) {
	cfg, err := BuildConfig("stripe", map[string]string{
		"stripe_key":    "pk_test",
		"stripe_secret": " sk_test ",
		"stripe_mode":   "LIVE",
		"paypal_mode":   "live",
	})
	require.NoError(t, err)
	assert.Equal(t, "live", cfg.Mode)
	assert.Equal(t, map[string]string{"key": "pk_test", "secret": "sk_test"}, cfg.Values)
	assert.True(t, ValidateConfig("stripe", cfg.Values).Valid)

	_, err = BuildConfig("nope", nil)
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestEnabledMethods(t *testing.T) {
	settings := map[string]string{
		"bank_transfer_enabled": "on",
		"bank_transfer_details": "IBAN 123",
		"stripe_enabled":        "on",
		"stripe_key":            "pk",
		"paypal_enabled":        "on",
		"paypal_client_id":      "id",
		"razorpay_public_key":   "k",
		"razorpay_secret_key":   "s",
	}
	methods := EnabledMethods(settings)
	names := make([]string, 0, len(methods))
	for _, m := range methods {
		names = append(names, m.Method)
	}
	assert.Equal(t, []string{"bank_transfer"}, names)
}

func TestResolveErrors(t *testing.T) {
	_, err := Resolve(map[string]string{}, "stripe")
	assert.ErrorIs(t, err, ErrMethodDisabled)

	_, err = Resolve(map[string]string{"stripe_enabled": "on", "stripe_key": "pk"}, "stripe")
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Len(t, cfgErr.Errors, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Contains(t, UserMessage(fmt.Errorf("wrap: %w", ErrUnknownMethod)), "not supported")
	assert.Contains(t, UserMessage(&ConfigError{Method: "stripe"}), "not configured")
	assert.Contains(t, UserMessage(context.DeadlineExceeded), "in time")
	msg := UserMessage(errors.New("dial tcp 10.0.0.1: connection refused"))
	assert.NotContains(t, msg, "10.0.0.1")
}

type memStore map[string]map[string]string

func (m memStore) Values(_ context.Context, userID string) (map[string]string, error) {
	out := map[string]string{}
	for k, v := range m[userID] {
		out[k] = v
	}
	return out, nil
}

func (m memStore) Upsert(_ context.Context, userID string, values map[string]string) error {
	if m[userID] == nil {
		m[userID] = map[string]string{}
	}
	for k, v := range values {
		m[userID][k] = v
	}
	return nil
}

type reverseSealer struct{}

func (reverseSealer) SealString(v string) (string, error) { return "sealed:" + v, nil }

func (reverseSealer) OpenString(v string) (string, error) {
	if !strings.HasPrefix(v, "sealed:") {
		return "", errors.New("not sealed")
	}
	return strings.TrimPrefix(v, "sealed:"), nil
}

func TestServiceUpdateSealsAndMasks(t *testing.T) {
	store := memStore{}
	svc := NewService(store, reverseSealer{})
	ctx := context.Background()

	problems, err := svc.Update(ctx, "admin", map[string]string{
		"stripe_enabled": "on",
		"stripe_key":     "pk_live_1",
		"stripe_secret":  "sk_live_abcd1234",
	})
	require.NoError(t, err)
	assert.Nil(t, problems)
	assert.Equal(t, "sealed:sk_live_abcd1234", store["admin"]["stripe_secret"])
	assert.Equal(t, "pk_live_1", store["admin"]["stripe_key"])

	masked, err := svc.Masked(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "********1234", masked["stripe_secret"])

	// Echoing the mask back keeps the stored secret.
	_, err = svc.Update(ctx, "admin", map[string]string{"stripe_secret": masked["stripe_secret"], "stripe_mode": "live"})
	require.NoError(t, err)
	cfg, err := svc.Config(ctx, "admin", "stripe")
	require.NoError(t, err)
	assert.Equal(t, "sk_live_abcd1234", cfg.Values["secret"])
	assert.Equal(t, ModeLive, cfg.Mode)
}

func TestServiceUpdateRejectsIncompleteEnabledMethod(t *testing.T) {
	svc := NewService(memStore{}, reverseSealer{})
	problems, err := svc.Update(context.Background(), "admin", map[string]string{
		"paypal_enabled": "on",
		"paypal_mode":    "production",
		"unknown_key":    "x",
	})
	require.ErrorIs(t, err, ErrInvalidSetting)
	assert.Contains(t, problems, "paypal_client_id")
	assert.Contains(t, problems, "paypal_secret_key")
	assert.Contains(t, problems, "paypal_mode")
	assert.Contains(t, problems, "unknown_key")
}

func TestMaskKeepsLastFourCharacters(t *testing.T) {
	assert.Equal(t, "", Mask(""))
	assert.Equal(t, maskPrefix, Mask("abcd"))
	assert.Equal(t, maskPrefix+"1234", Mask("sk_live_1234"))
	assert.Equal(t, maskPrefix, Mask("ключ"))

	masked := Mask("secret-пароль€")
	assert.True(t, utf8.ValidString(masked), masked)
	assert.Equal(t, maskPrefix+"оль€", masked)
}
