package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/ec-stripe-checkout/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenService() *auth.TokenService {
	return auth.NewTokenService("test-secret-key-at-least-32-chars-long", 15*time.Minute)
}

func issueToken(t *testing.T, tokens *auth.TokenService) string {
	t.Helper()
	token, _, err := tokens.GenerateToken("user-123", "alice@example.com")
	require.NoError(t, err)
	return token
}

// claimsEcho records the user ID the middleware put in context.
func claimsEcho(gotUserID *string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUserID = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

// ============================================
// Token Extraction Tests
// ============================================

func TestExtractToken_Cookie(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})

	assert.Equal(t, "cookie-token", ExtractToken(r))
}

func TestExtractToken_BearerHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "header-token", ExtractToken(r))
}

func TestExtractToken_CookieWinsOverHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: "cookie-token"})
	r.Header.Set("Authorization", "Bearer header-token")

	assert.Equal(t, "cookie-token", ExtractToken(r))
}

func TestExtractToken_None(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, ExtractToken(r))
}

// ============================================
// Auth Middleware Tests
// ============================================

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tokens := newTokenService()
	var gotUserID string
	handler := AuthMiddleware(tokens)(claimsEcho(&gotUserID))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+issueToken(t, tokens))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-123", gotUserID)
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	var gotUserID string
	handler := AuthMiddleware(newTokenService())(claimsEcho(&gotUserID))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, gotUserID)
	assert.JSONEq(t, `{"error":"unauthorized"}`, w.Body.String())
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	var gotUserID string
	handler := AuthMiddleware(newTokenService())(claimsEcho(&gotUserID))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, gotUserID)
}

// ============================================
// Optional Auth Middleware Tests
// ============================================

func TestOptionalAuthMiddleware_WithToken(t *testing.T) {
	tokens := newTokenService()
	var gotUserID string
	handler := OptionalAuthMiddleware(tokens)(claimsEcho(&gotUserID))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "access_token", Value: issueToken(t, tokens)})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-123", gotUserID)
}

func TestOptionalAuthMiddleware_WithoutToken(t *testing.T) {
	var gotUserID string
	handler := OptionalAuthMiddleware(newTokenService())(claimsEcho(&gotUserID))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	// Anonymous requests pass through with no claims attached.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, gotUserID)
}

func TestGetUserFromContext_Empty(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := GetUserFromContext(r.Context())
	assert.False(t, ok)
}
