package fetch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies bearer tokens for image requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a pre-shared bearer token.
type StaticToken string

// Token returns the token itself.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// ErrMissingSigningKey is returned by NewJWTTokenSource without a key.
var ErrMissingSigningKey = errors.New("fetch: jwt signing key is required")

// JWTConfig configures a JWTTokenSource.
type JWTConfig struct {
	// Issuer is the iss claim.
	Issuer string

	// Audience is the aud claim.
	Audience string

	// Subject is the sub claim.
	Subject string

	// SigningKey is the HMAC secret.
	SigningKey []byte

	// TTL is the token lifetime. Default: 5m
	TTL time.Duration

	// Leeway is how long before expiry a fresh token is minted.
	// Default: 30s
	Leeway time.Duration
}

// JWTTokenSource mints HS256 tokens and reuses each one until it is close
// to expiry.
type JWTTokenSource struct {
	config JWTConfig
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewJWTTokenSource creates a JWTTokenSource.
func NewJWTTokenSource(config JWTConfig) (*JWTTokenSource, error) {
	if len(config.SigningKey) == 0 {
		return nil, ErrMissingSigningKey
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.Leeway <= 0 {
		config.Leeway = 30 * time.Second
	}
	if config.Leeway >= config.TTL {
		config.Leeway = config.TTL / 2
	}
	return &JWTTokenSource{config: config, now: time.Now}, nil
}

// Token returns the cached token or mints a new one.
func (s *JWTTokenSource) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Before(s.expires.Add(-s.config.Leeway)) {
		return s.token, nil
	}

	expires := now.Add(s.config.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.config.Issuer,
		Subject:   s.config.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.config.SigningKey)
	if err != nil {
		return "", err
	}
	s.token = signed
	s.expires = expires
	return signed, nil
}

var (
	_ TokenSource = StaticToken("")
	_ TokenSource = (*JWTTokenSource)(nil)
)
