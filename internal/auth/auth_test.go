package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func TestTokenRoundTrip(t *testing.T) {
	tok, err := NewToken(secret, "user-1", false, time.Hour)
	require.NoError(t, err)

	ident, err := Parse(secret, tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UserID)
	assert.False(t, ident.Admin)
}

func TestAdminClaim(t *testing.T) {
	tok, err := NewToken(secret, "admin-1", true, time.Hour)
	require.NoError(t, err)

	ident, err := Parse(secret, tok)
	require.NoError(t, err)
	assert.True(t, ident.Admin)
}

func TestParseRejectsBadTokens(t *testing.T) {
	tok, err := NewToken(secret, "user-1", false, time.Hour)
	require.NoError(t, err)

	_, err = Parse("wrong-secret", tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = Parse(secret, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewToken(secret, "user-1", false, -time.Minute)
	require.NoError(t, err)
	_, err = Parse(secret, expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	var got Identity
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = FromContext(r.Context())
	})
	handler := Middleware(secret)(inner)

	// no token
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// valid token
	tok, err := NewToken(secret, "user-1", true, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Identity{UserID: "user-1", Admin: true}, got)
}

func TestRequireAdmin(t *testing.T) {
	handler := Middleware(secret)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})))

	tok, err := NewToken(secret, "user-1", false, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
