package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/g-mayer/user-service/internal/config"
	"github.com/g-mayer/user-service/internal/domain"
)

// Sentinel failures for token handling. Missing and malformed headers are
// detected before any cryptographic work; every structural, signature, or
// expiry problem collapses into ErrInvalidOrExpiredToken.
var (
	ErrMissingAuthorizationHeader   = errors.New("missing authorization header")
	ErrMalformedAuthorizationHeader = errors.New("malformed authorization header")
	ErrInvalidOrExpiredToken        = errors.New("invalid or expired token")
	ErrClockUnavailable             = errors.New("system clock unavailable")
)

const bearerPrefix = "Bearer "

// Clock supplies the current time. Issuance refuses to produce a token when
// the clock cannot be read.
type Clock func() (time.Time, error)

// SystemClock reads the wall clock.
func SystemClock() (time.Time, error) {
	return time.Now(), nil
}

// Claims is the signed identity payload. Role is a snapshot taken at
// issuance and is never re-read from storage during validation; issued
// tokens only lose effect by expiring.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the token's opaque user identifier.
func (c *Claims) UserID() string {
	return c.RegisteredClaims.Subject
}

// TokenManager issues and verifies HS256-signed identity tokens. The secret
// is read-only for the process lifetime and safe for concurrent use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  Clock
}

// NewTokenManager builds a manager from auth configuration.
func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	return NewTokenManagerWithClock(cfg, SystemClock)
}

// NewTokenManagerWithClock allows tests to control the time source.
func NewTokenManagerWithClock(cfg config.AuthConfig, clock Clock) *TokenManager {
	ttl := cfg.TokenTTL()
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &TokenManager{secret: []byte(cfg.JWTSecret), ttl: ttl, clock: clock}
}

// Issue signs a token for the user with the role embedded as issued. Returns
// ErrClockUnavailable when the current time cannot be read; it never falls
// back to an empty token.
func (tm *TokenManager) Issue(userID string, role domain.Role) (string, time.Time, error) {
	now, err := tm.clock()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrClockUnavailable, err)
	}

	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyHeader validates a raw Authorization header value and returns the
// claims it carries. A "Bearer " prefix is stripped when present; a value
// without the prefix is passed through whole rather than rejected.
func (tm *TokenManager) VerifyHeader(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrMissingAuthorizationHeader
	}
	if !utf8.ValidString(raw) {
		return nil, ErrMalformedAuthorizationHeader
	}
	return tm.Verify(strings.TrimPrefix(raw, bearerPrefix))
}

// Verify checks structure, signature, and expiry in one pass. Only HS256
// tokens are accepted; any other algorithm in the token header is rejected
// outright.
func (tm *TokenManager) Verify(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidOrExpiredToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidOrExpiredToken
	}
	if claims.UserID() == "" || !claims.Role.Valid() {
		return nil, ErrInvalidOrExpiredToken
	}
	return claims, nil
}
