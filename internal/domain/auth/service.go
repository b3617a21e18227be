package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	cryptoutil "hrsaas/internal/platform/crypto"
)

const (
	TokenTTL  = 8 * time.Hour
	mfaIssuer = "HRSaaS"
)

type Service struct {
	store  StoreAPI
	crypto *cryptoutil.Service
	secret string
}

func NewService(store StoreAPI, crypto *cryptoutil.Service, secret string) *Service {
	return &Service{store: store, crypto: crypto, secret: secret}
}

type LoginResult struct {
	Token        string   `json:"token"`
	User         User     `json:"user"`
	Capabilities []string `json:"capabilities"`
}

func (s *Service) Login(ctx context.Context, email, password, mfaCode string) (LoginResult, error) {
	user, err := s.store.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}
	if user.Status != UserStatusActive {
		return LoginResult{}, ErrUserInactive
	}
	if user.MFAEnabled {
		if strings.TrimSpace(mfaCode) == "" {
			return LoginResult{}, ErrMFARequired
		}
		secret, err := s.mfaSecret(user)
		if err != nil {
			return LoginResult{}, err
		}
		if !totp.Validate(mfaCode, secret) {
			return LoginResult{}, ErrMFAInvalid
		}
	}

	ctxUser := NewUserContext(user)
	token, err := GenerateToken(s.secret, ctxUser, TokenTTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	return LoginResult{Token: token, User: user, Capabilities: capabilityNames(ctxUser.Capabilities())}, nil
}

func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	return s.store.FindByID(ctx, userID)
}

func (s *Service) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := CheckPassword(user.PasswordHash, current); err != nil {
		return ErrInvalidCredentials
	}
	if len(next) < 8 {
		return ErrWeakPassword
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, userID, hash)
}

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

func (s *Service) SetupMFA(ctx context.Context, userID string) (MFASetup, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return MFASetup{}, err
	}
	key, err := totp.Generate(totp.GenerateOpts{Issuer: mfaIssuer, AccountName: user.Email})
	if err != nil {
		return MFASetup{}, err
	}
	enc, err := s.crypto.Encrypt([]byte(key.Secret()))
	if err != nil {
		return MFASetup{}, err
	}
	if err := s.store.UpdateMFASecret(ctx, userID, enc); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

func (s *Service) SetMFA(ctx context.Context, userID, code string, enabled bool) error {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	secret, err := s.mfaSecret(user)
	if err != nil {
		return err
	}
	if !totp.Validate(code, secret) {
		return ErrMFAInvalid
	}
	return s.store.SetMFAEnabled(ctx, userID, enabled)
}

func (s *Service) mfaSecret(user User) (string, error) {
	if len(user.MFASecretEnc) == 0 {
		return "", ErrMFANotConfigured
	}
	plain, err := s.crypto.Decrypt(user.MFASecretEnc)
	if err != nil {
		return "", fmt.Errorf("decrypt mfa secret: %w", err)
	}
	return string(plain), nil
}

func capabilityNames(set CapabilitySet) []string {
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, string(c))
	}
	sort.Strings(out)
	return out
}
