package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"user-portal/internal/observability"
)

func newTestGate(t *testing.T) (*Gate, *TokenProvider) {
	t.Helper()

	tokens := NewTokenProvider(testSecret, 24*time.Hour)
	logger := observability.NewLoggerTo(io.Discard)
	publicPaths := []string{"/user/login", "/user/image/"}

	return NewGate(tokens, publicPaths, logger), tokens
}

func gateMux(gate *Gate) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /user/image/{username}/{fileName}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /user/find/{username}", gate.Require("user:read", func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFrom(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-Principal", principal.Username)
		w.WriteHeader(http.StatusOK)
	}))
	mux.Handle("DELETE /user/delete/{id}", gate.Require("user:delete", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	return gate.Middleware(mux)
}

func TestGatePublicPathBypassesAuthentication(t *testing.T) {
	t.Parallel()

	gate, _ := newTestGate(t)
	handler := gateMux(gate)

	req := httptest.NewRequest(http.MethodPost, "/user/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/user/image/alice/alice.jpg", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGateMissingTokenOnProtectedPath(t *testing.T) {
	t.Parallel()

	gate, _ := newTestGate(t)
	handler := gateMux(gate)

	req := httptest.NewRequest(http.MethodGet, "/user/find/alice", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "UNAUTHORIZED")
}

func TestGateValidTokenPopulatesPrincipal(t *testing.T) {
	t.Parallel()

	gate, tokens := newTestGate(t)
	handler := gateMux(gate)

	token, err := tokens.Issue("alice", []string{"user:read"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/user/find/alice", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", rec.Header().Get("X-Principal"))
}

func TestGateDeniesMissingAuthority(t *testing.T) {
	t.Parallel()

	gate, tokens := newTestGate(t)
	handler := gateMux(gate)

	token, err := tokens.Issue("alice", []string{"user:read"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, "/user/delete/42", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGateRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenProvider(testSecret, time.Hour).WithClock(func() time.Time { return issuedAt })
	token, err := issuer.Issue("alice", []string{"user:read"})
	require.NoError(t, err)

	verifier := NewTokenProvider(testSecret, time.Hour).WithClock(func() time.Time {
		return issuedAt.Add(2 * time.Hour)
	})
	gate := NewGate(verifier, nil, observability.NewLoggerTo(io.Discard))
	handler := gateMux(gate)

	req := httptest.NewRequest(http.MethodGet, "/user/find/alice", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGateRejectsGarbageToken(t *testing.T) {
	t.Parallel()

	gate, _ := newTestGate(t)
	handler := gateMux(gate)

	req := httptest.NewRequest(http.MethodGet, "/user/find/alice", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
