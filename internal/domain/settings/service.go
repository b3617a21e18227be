package settings

import (
	"context"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

type StoreAPI interface {
	ResolverStore
	Upsert(ctx context.Context, userID string, values map[string]string) error
}

type Service struct {
	store    StoreAPI
	resolver *Resolver
}

func NewService(store StoreAPI, saas bool) *Service {
	return &Service{store: store, resolver: NewResolver(store, saas)}
}

func (s *Service) Resolve(ctx context.Context, userID string) (map[string]string, error) {
	return s.resolver.Resolve(ctx, userID)
}

func (s *Service) Formatter(ctx context.Context, userID string) (Formatter, error) {
	values, err := s.resolver.Resolve(ctx, userID)
	if err != nil {
		return Formatter{}, err
	}
	return NewFormatter(values), nil
}

// Update validates and stores the user's own rows. It returns field-keyed
// problems instead of writing anything when a value is rejected.
func (s *Service) Update(ctx context.Context, userID string, values map[string]string) (map[string]string, error) {
	cleaned := make(map[string]string, len(values))
	problems := map[string]string{}
	for key, value := range values {
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" {
			continue
		}
		if msg := validateValue(key, value); msg != "" {
			problems[key] = msg
			continue
		}
		cleaned[key] = value
	}
	if len(problems) > 0 {
		return problems, ErrInvalidSetting
	}
	if err := s.store.Upsert(ctx, userID, cleaned); err != nil {
		return nil, fmt.Errorf("store settings: %w", err)
	}
	return nil, nil
}

func validateValue(key, value string) string {
	if value == "" {
		return ""
	}
	switch key {
	case KeyDefaultLanguage:
		if _, err := language.Parse(value); err != nil {
			return "must be a valid language tag"
		}
	case KeyDefaultCurrency:
		unit, err := currency.ParseISO(value)
		if err != nil || unit == (currency.Unit{}) || strings.ToUpper(value) != value {
			return "must be a 3 letter ISO currency code"
		}
	case KeyDefaultTimezone:
		if _, err := time.LoadLocation(value); err != nil {
			return "must be a valid IANA time zone"
		}
	case KeyCurrencySymbolPosition:
		if value != SymbolBefore && value != SymbolAfter {
			return "must be before or after"
		}
	case KeyDecimalFormat:
		if n, err := strconv.Atoi(value); err != nil || n < 0 || n > 6 {
			return "must be a number between 0 and 6"
		}
	case KeyWorkingDaysPerMonth:
		if n, err := strconv.Atoi(value); err != nil || n < 1 || n > 31 {
			return "must be a number between 1 and 31"
		}
	case KeyCurrencySymbolSpace:
		if _, err := strconv.ParseBool(value); err != nil {
			return "must be true or false"
		}
	case KeyEmailNotifications:
		if value != On && value != Off {
			return "must be on or off"
		}
	case KeyMailFromAddress:
		if addr, err := mail.ParseAddress(value); err != nil || addr.Address != value {
			return "must be a plain email address"
		}
	}
	return ""
}
