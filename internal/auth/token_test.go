package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/g-mayer/user-service/internal/config"
	"github.com/g-mayer/user-service/internal/domain"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{JWTSecret: "test-secret", TokenTTLMinutes: 60}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	tm := NewTokenManager(testAuthConfig())

	for _, role := range []domain.Role{domain.RoleGuest, domain.RoleUser, domain.RoleAdmin} {
		token, expiresAt, err := tm.Issue("user-123", role)
		require.NoError(t, err)
		require.NotEmpty(t, token)
		assert.True(t, expiresAt.After(time.Now()))

		claims, err := tm.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID())
		assert.Equal(t, role, claims.Role)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	past := func() (time.Time, error) { return time.Now().Add(-48 * time.Hour), nil }
	tm := NewTokenManagerWithClock(testAuthConfig(), past)

	// Signed with the right secret, expired 47 hours ago.
	token, _, err := tm.Issue("user-123", domain.RoleUser)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	tm := NewTokenManager(testAuthConfig())

	token, _, err := tm.Issue("user-123", domain.RoleUser)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	// The last base64 character carries unused trailing bits that a lenient
	// decoder ignores, so flips stop one short of it.
	sig := []byte(parts[2])
	for i := 0; i < len(sig)-1; i++ {
		flipped := append([]byte{}, sig...)
		if flipped[i] == 'A' {
			flipped[i] = 'B'
		} else {
			flipped[i] = 'A'
		}
		tampered := parts[0] + "." + parts[1] + "." + string(flipped)
		if tampered == token {
			continue
		}
		_, err := tm.Verify(tampered)
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken, "flipped signature byte %d", i)
	}
}

func TestVerifyRejectsForeignAlgorithm(t *testing.T) {
	cfg := testAuthConfig()
	tm := NewTokenManager(cfg)

	claims := &Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)
	_, err = tm.Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = tm.Verify(none)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager(testAuthConfig())
	other := NewTokenManager(config.AuthConfig{JWTSecret: "different-secret", TokenTTLMinutes: 60})

	token, _, err := other.Issue("user-123", domain.RoleUser)
	require.NoError(t, err)

	_, err = tm.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
}

func TestVerifyHeader(t *testing.T) {
	tm := NewTokenManager(testAuthConfig())

	token, _, err := tm.Issue("user-123", domain.RoleUser)
	require.NoError(t, err)

	t.Run("missing header short-circuits before crypto", func(t *testing.T) {
		_, err := tm.VerifyHeader("")
		assert.ErrorIs(t, err, ErrMissingAuthorizationHeader)
	})

	t.Run("malformed header short-circuits before crypto", func(t *testing.T) {
		_, err := tm.VerifyHeader("Bearer \xff\xfe")
		assert.ErrorIs(t, err, ErrMalformedAuthorizationHeader)
	})

	t.Run("bearer prefix is stripped", func(t *testing.T) {
		claims, err := tm.VerifyHeader("Bearer " + token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID())
	})

	t.Run("value without prefix is passed through whole", func(t *testing.T) {
		claims, err := tm.VerifyHeader(token)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID())
	})

	t.Run("garbage value fails verification, not header parsing", func(t *testing.T) {
		_, err := tm.VerifyHeader("Bearer not-a-token")
		assert.ErrorIs(t, err, ErrInvalidOrExpiredToken)
	})
}

func TestIssueClockUnavailable(t *testing.T) {
	broken := func() (time.Time, error) { return time.Time{}, errors.New("clock read failed") }
	tm := NewTokenManagerWithClock(testAuthConfig(), broken)

	token, _, err := tm.Issue("user-123", domain.RoleUser)
	assert.ErrorIs(t, err, ErrClockUnavailable)
	assert.Empty(t, token)
}

func TestConcurrentIssuance(t *testing.T) {
	tm := NewTokenManager(testAuthConfig())

	const n = 16
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			token, _, err := tm.Issue(fmt.Sprintf("user-%d", i), domain.RoleUser)
			assert.NoError(t, err)
			tokens[i] = token
		}(i)
	}
	wg.Wait()

	subjects := make(map[string]struct{}, n)
	for _, token := range tokens {
		claims, err := tm.Verify(token)
		require.NoError(t, err)
		subjects[claims.UserID()] = struct{}{}
	}
	assert.Len(t, subjects, n)
}
