package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dan9191/quotation-service/internal/auth"
	"github.com/Dan9191/quotation-service/internal/httputil"
	"github.com/Dan9191/quotation-service/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokens(t *testing.T, secret string) *auth.TokenManager {
	t.Helper()
	m, err := auth.NewTokenManager(auth.TokenConfig{Secret: secret, ExpiresIn: time.Hour})
	require.NoError(t, err)
	return m
}

// echoUser writes the identity found in the context.
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	u, ok := httputil.UserFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusTeapot)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
})

func TestAuthMiddleware(t *testing.T) {
	tokens := newTokens(t, "s1")
	log, _ := test.NewNullLogger()
	alice := models.PublicUser{ID: 1, Username: "alice", Email: "a@x.com", Role: models.RoleUser}
	valid, err := tokens.Issue(alice)
	require.NoError(t, err)
	foreign, err := newTokens(t, "s2").Issue(alice)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"no header", "", http.StatusUnauthorized, `{"error":"Access denied. No token provided."}`},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized, `{"error":"Invalid token format."}`},
		{"token only", valid, http.StatusUnauthorized, `{"error":"Invalid token format."}`},
		{"three parts", "Bearer " + valid + " extra", http.StatusUnauthorized, `{"error":"Invalid token format."}`},
		{"garbage", "Bearer garbage", http.StatusUnauthorized, `{"error":"Invalid token."}`},
		{"signed by another secret", "Bearer " + foreign, http.StatusUnauthorized, `{"error":"Invalid token."}`},
		{"valid", "Bearer " + valid, http.StatusOK, `{"id":1,"username":"alice","email":"a@x.com","role":"user"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			AuthMiddleware(tokens, log)(echoUser).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestAdminMiddleware(t *testing.T) {
	tokens := newTokens(t, "s1")
	log, _ := test.NewNullLogger()
	chain := AuthMiddleware(tokens, log)(AdminMiddleware(echoUser))

	issue := func(role string) string {
		tok, err := tokens.Issue(models.PublicUser{ID: 9, Username: "u", Email: "u@x.com", Role: role})
		require.NoError(t, err)
		return tok
	}

	t.Run("user role is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/quotations/1", nil)
		req.Header.Set("Authorization", "Bearer "+issue(models.RoleUser))
		w := httptest.NewRecorder()
		chain.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"Access denied. Admin privileges required."}`, w.Body.String())
	})

	t.Run("admin role passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/quotations/1", nil)
		req.Header.Set("Authorization", "Bearer "+issue(models.RoleAdmin))
		w := httptest.NewRecorder()
		chain.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("no identity is unauthenticated", func(t *testing.T) {
		w := httptest.NewRecorder()
		AdminMiddleware(echoUser).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Authentication required."}`, w.Body.String())
	})
}
