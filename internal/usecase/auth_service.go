package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/salescoach/backend/internal/domain"
)

const (
	otpKeyPrefix     = "otp:"
	sessionKeyPrefix = "session:"
	otpDigits        = 6
)

var (
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[a-z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?\d{10,15}$`)
	phoneNoise = regexp.MustCompile(`[\s\-().]`)
)

// AuthConfig holds configuration for OTP login
type AuthConfig struct {
	OTPTTL      time.Duration
	SessionTTL  time.Duration
	MaxAttempts int
}

// AuthService issues one-time passwords and the sessions they unlock
type AuthService struct {
	store  domain.KeyValueStore
	sender domain.OTPSender
	config AuthConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(store domain.KeyValueStore, sender domain.OTPSender, config AuthConfig, logger zerolog.Logger) *AuthService {
	if config.OTPTTL <= 0 {
		config.OTPTTL = 5 * time.Minute
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 24 * time.Hour
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 5
	}
	return &AuthService{
		store:  store,
		sender: sender,
		config: config,
		logger: logger.With().Str("component", "auth").Logger(),
		now:    time.Now,
	}
}

// RequestOTP generates a code for identifier, replacing any outstanding one, and sends it.
// It returns when the code expires.
func (s *AuthService) RequestOTP(ctx context.Context, identifier string) (time.Time, error) {
	id, err := normalizeIdentifier(identifier)
	if err != nil {
		return time.Time{}, err
	}

	code, err := generateCode(otpDigits)
	if err != nil {
		return time.Time{}, fmt.Errorf("generating otp: %w", err)
	}

	challenge := domain.OTPChallenge{
		Identifier: id,
		Code:       code,
		ExpiresAt:  s.now().Add(s.config.OTPTTL),
	}
	if err := s.putJSON(ctx, otpKeyPrefix+id, challenge, s.config.OTPTTL); err != nil {
		return time.Time{}, err
	}

	if err := s.sender.Send(ctx, id, code); err != nil {
		_ = s.store.Delete(ctx, otpKeyPrefix+id)
		return time.Time{}, fmt.Errorf("%w: sending otp: %v", domain.ErrExternalService, err)
	}

	s.logger.Info().Str("identifier", id).Time("expires_at", challenge.ExpiresAt).Msg("otp issued")
	return challenge.ExpiresAt, nil
}

// VerifyOTP checks code against the outstanding challenge. A correct code consumes the
// challenge and opens a session; wrong codes count toward the attempt limit.
func (s *AuthService) VerifyOTP(ctx context.Context, identifier, code string) (domain.Session, error) {
	id, err := normalizeIdentifier(identifier)
	if err != nil {
		return domain.Session{}, err
	}
	key := otpKeyPrefix + id

	var challenge domain.OTPChallenge
	if err := s.getJSON(ctx, key, &challenge); err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return domain.Session{}, domain.ErrOTPExpired
		}
		return domain.Session{}, err
	}

	now := s.now()
	if !now.Before(challenge.ExpiresAt) {
		_ = s.store.Delete(ctx, key)
		return domain.Session{}, domain.ErrOTPExpired
	}
	if challenge.Attempts >= s.config.MaxAttempts {
		_ = s.store.Delete(ctx, key)
		return domain.Session{}, domain.ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(code)), []byte(challenge.Code)) != 1 {
		challenge.Attempts++
		if challenge.Attempts >= s.config.MaxAttempts {
			_ = s.store.Delete(ctx, key)
			s.logger.Warn().Str("identifier", id).Msg("otp locked after too many attempts")
			return domain.Session{}, domain.ErrTooManyAttempts
		}
		if err := s.putJSON(ctx, key, challenge, challenge.ExpiresAt.Sub(now)); err != nil {
			return domain.Session{}, err
		}
		return domain.Session{}, domain.ErrInvalidOTP
	}

	if err := s.store.Delete(ctx, key); err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		Token:      uuid.NewString(),
		Identifier: id,
		ExpiresAt:  now.Add(s.config.SessionTTL),
	}
	if err := s.putJSON(ctx, sessionKeyPrefix+session.Token, session, s.config.SessionTTL); err != nil {
		return domain.Session{}, err
	}

	s.logger.Info().Str("identifier", id).Msg("session opened")
	return session, nil
}

// Session returns the live session for token or domain.ErrUnauthorized
func (s *AuthService) Session(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}

	var session domain.Session
	if err := s.getJSON(ctx, sessionKeyPrefix+token, &session); err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return domain.Session{}, domain.ErrUnauthorized
		}
		return domain.Session{}, err
	}
	if !s.now().Before(session.ExpiresAt) {
		return domain.Session{}, domain.ErrUnauthorized
	}
	return session, nil
}

// Logout ends the session. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, sessionKeyPrefix+token)
}

func (s *AuthService) putJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.store.Set(ctx, key, data, ttl)
}

func (s *AuthService) getJSON(ctx context.Context, key string, v any) error {
	data, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// normalizeIdentifier accepts an email address or a phone number
func normalizeIdentifier(identifier string) (string, error) {
	id := strings.ToLower(strings.TrimSpace(identifier))
	if emailRegex.MatchString(id) {
		return id, nil
	}
	if phone := phoneNoise.ReplaceAllString(id, ""); phoneRegex.MatchString(phone) {
		return phone, nil
	}
	return "", fmt.Errorf("%w: identifier must be an email address or phone number", domain.ErrInvalidRequest)
}

// generateCode returns a zero-padded random numeric code
func generateCode(digits int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}
