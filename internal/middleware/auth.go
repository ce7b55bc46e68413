package middleware

import (
	"net/http"
	"strings"

	"github.com/Dan9191/quotation-service/internal/auth"
	"github.com/Dan9191/quotation-service/internal/httputil"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// token's identity in the request context.
func AuthMiddleware(tokens TokenVerifier, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}

			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, "Invalid token format.")
				return
			}

			claims, err := tokens.Verify(parts[1])
			if err != nil {
				log.WithError(err).WithField("request_id", httputil.RequestID(r.Context())).
					Debug("Token verification failed")
				httputil.WriteErrorMessage(w, http.StatusUnauthorized, "Invalid token.")
				return
			}

			ctx := httputil.WithUser(r.Context(), claims.Identity())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminMiddleware lets through only requests whose identity has the admin
// role. It must run after AuthMiddleware.
func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := httputil.UserFromContext(r.Context())
		if !ok {
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "Authentication required.")
			return
		}
		if !user.IsAdmin() {
			httputil.WriteErrorMessage(w, http.StatusForbidden, "Access denied. Admin privileges required.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
