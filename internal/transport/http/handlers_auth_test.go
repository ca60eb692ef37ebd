package httptransport

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleanghana/internal/identity"
)

func newAuthRouter(t *testing.T, customKey string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAuthHandler(identity.NewProvider(customKey), logger)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestAnonymousSignIn(t *testing.T) {
	router := newAuthRouter(t, "")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/anonymous", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp SignInResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Anonymous)
	assert.True(t, strings.HasPrefix(resp.IdentityID, "anon-"))
	assert.NotEmpty(t, resp.Token)
}

func TestAnonymousSignInTokenValidates(t *testing.T) {
	provider := identity.NewProvider("")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewAuthHandler(provider, logger)
	r := chi.NewRouter()
	h.Register(r)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/anonymous", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SignInResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	claims, err := provider.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.IdentityID, claims.IdentityID)
}

func TestCustomTokenSignInRejectsGarbage(t *testing.T) {
	router := newAuthRouter(t, "shared-secret-shared-secret-1234")

	body := strings.NewReader(`{"token":"not-a-jwt"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "unauthorized")
}

func TestCustomTokenSignInRequiresToken(t *testing.T) {
	router := newAuthRouter(t, "shared-secret-shared-secret-1234")

	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCustomTokenSignInRoundTrip(t *testing.T) {
	key := "shared-secret-shared-secret-1234"

	// An upstream system mints a token with the shared key; signing in
	// with it yields a session for the same subject.
	minted, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "citizen-42",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(key))
	require.NoError(t, err)

	router := newAuthRouter(t, key)
	body := strings.NewReader(`{"token":"` + minted + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/token", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp SignInResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "citizen-42", resp.IdentityID)
	assert.False(t, resp.Anonymous)
}
