package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/go-user-accounts/config"
	"github.com/FACorreiaa/go-user-accounts/internal/types"
)

// Tagged verification failures. Callers treat all of them as an
// authentication failure but may log the distinction.
var (
	ErrTokenMissing           = errors.New("token missing")
	ErrTokenMalformed         = errors.New("token malformed")
	ErrTokenSignatureMismatch = errors.New("token signature mismatch")
	ErrTokenExpired           = errors.New("token expired")
)

const defaultAccessTokenTTL = 24 * time.Hour

// TokenService issues and verifies signed, time-bounded identity tokens.
// The signing secret is fixed at construction; validity is determined
// purely by signature and expiry, never by server-side state.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
	issuer    string
	audience  string
}

// NewTokenService builds a TokenService from configuration. An empty
// secret is a fatal configuration error, not a runtime error path.
func NewTokenService(cfg config.JWTConfig) (*TokenService, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("JWT secret key is not configured")
	}
	ttl := cfg.AccessTokenTTL
	if ttl <= 0 {
		ttl = defaultAccessTokenTTL
	}
	return &TokenService{
		secretKey: []byte(cfg.SecretKey),
		ttl:       ttl,
		issuer:    cfg.Issuer,
		audience:  cfg.Audience,
	}, nil
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue produces a signed token for the subject with issuedAt = now and
// expiresAt = now + TTL.
func (s *TokenService) Issue(userID uuid.UUID, role types.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// Verify checks signature integrity and expiry and returns the claims.
// No clock-skew tolerance is applied; a token is expired the instant
// now passes expiresAt.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrTokenSignatureMismatch
		default:
			return nil, fmt.Errorf("token verification failed: %w", ErrTokenMalformed)
		}
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, fmt.Errorf("unexpected issuer %q: %w", claims.Issuer, ErrTokenMalformed)
	}
	return claims, nil
}
