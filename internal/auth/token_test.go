package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/todo/internal/apperr"
	"github.com/dukerupert/todo/internal/model"
)

func newTestTokenService(t *testing.T, alg string) *TokenService {
	t.Helper()
	s, err := NewTokenService(TokenConfig{Secret: []byte("test-secret"), Algorithm: alg, TTL: 20 * time.Minute})
	require.NoError(t, err)
	return s
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	for _, alg := range []string{"HS256", "HS384", "HS512"} {
		t.Run(alg, func(t *testing.T) {
			s := newTestTokenService(t, alg)
			tok, err := s.Issue("alice", 42, model.RoleAdmin)
			require.NoError(t, err)

			id, err := s.Verify(tok)
			require.NoError(t, err)
			assert.Equal(t, int64(42), id.UserID)
			assert.Equal(t, "alice", id.Username)
			assert.Equal(t, model.RoleAdmin, id.Role)
			assert.False(t, id.ExpiresAt.IsZero())
		})
	}
}

func TestVerifyExpired(t *testing.T) {
	s := newTestTokenService(t, "HS256")
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return start }

	tok, err := s.Issue("alice", 1, model.RoleUser)
	require.NoError(t, err)

	s.now = func() time.Time { return start.Add(19 * time.Minute) }
	id, err := s.Verify(tok)
	require.NoError(t, err, "token should still be valid before expiry")
	assert.True(t, id.ExpiresAt.Equal(start.Add(20*time.Minute)), "expires at %v", id.ExpiresAt)

	s.now = func() time.Time { return start.Add(21 * time.Minute) }
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyTampered(t *testing.T) {
	s := newTestTokenService(t, "HS256")
	tok, err := s.Issue("alice", 1, model.RoleUser)
	require.NoError(t, err)

	tampered := tok[:len(tok)-2] + "xx"
	_, err = s.Verify(tampered)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = s.Verify("not.a.token")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = s.Verify("")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestVerifyWrongSecret(t *testing.T) {
	s := newTestTokenService(t, "HS256")
	other, err := NewTokenService(TokenConfig{Secret: []byte("rotated"), Algorithm: "HS256", TTL: time.Minute})
	require.NoError(t, err)

	tok, err := other.Issue("alice", 1, model.RoleUser)
	require.NoError(t, err)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestVerifyWrongAlgorithm(t *testing.T) {
	s := newTestTokenService(t, "HS256")
	other := newTestTokenService(t, "HS512")

	tok, err := other.Issue("alice", 1, model.RoleUser)
	require.NoError(t, err)
	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestVerifyNoneAlgorithm(t *testing.T) {
	s := newTestTokenService(t, "HS256")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub":  "mallory",
		"id":   1,
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.Verify(tok)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func signMap(t *testing.T, c jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestVerifyMissingClaims(t *testing.T) {
	s := newTestTokenService(t, "HS256")
	exp := time.Now().Add(time.Hour).Unix()

	tests := map[string]jwt.MapClaims{
		"no sub": {"id": 1, "role": "user", "exp": exp},
		"no id":  {"sub": "alice", "role": "user", "exp": exp},
		"no exp": {"sub": "alice", "id": 1, "role": "user"},
	}
	for name, c := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(signMap(t, c))
			assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
		})
	}
}

func TestVerifyUnknownRoleHasNoPrivilege(t *testing.T) {
	s := newTestTokenService(t, "HS256")
	tok := signMap(t, jwt.MapClaims{"sub": "alice", "id": 3, "role": "root", "exp": time.Now().Add(time.Hour).Unix()})

	id, err := s.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, model.Role(""), id.Role)
	assert.False(t, id.IsAdmin())
}

func TestIssueWithTTLRejectsNonPositive(t *testing.T) {
	s := newTestTokenService(t, "HS256")
	_, err := s.IssueWithTTL("alice", 1, model.RoleUser, 0)
	assert.Error(t, err)
}

func TestNewTokenServiceInvalid(t *testing.T) {
	tests := map[string]TokenConfig{
		"empty secret": {Algorithm: "HS256", TTL: time.Minute},
		"zero ttl":     {Secret: []byte("k"), Algorithm: "HS256"},
		"rsa":          {Secret: []byte("k"), Algorithm: "RS256", TTL: time.Minute},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewTokenService(cfg)
			assert.Error(t, err)
		})
	}
}

func TestVerifyErrorIsNotLeakingExpiry(t *testing.T) {
	s := newTestTokenService(t, "HS256")
	_, err := s.Verify("garbage")
	assert.False(t, errors.Is(err, ErrTokenExpired))
}
