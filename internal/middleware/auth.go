package middleware

import (
	"net/http"
	"strings"

	"github.com/templui/recipehub/internal/apperror"
	"github.com/templui/recipehub/internal/ctxkeys"
	"github.com/templui/recipehub/internal/model"
)

// SessionVerifier resolves a bearer token to the identity it carries.
type SessionVerifier interface {
	VerifySession(token string) (*model.SessionUser, error)
}

// RequireAuth rejects requests without a valid `Authorization: Bearer <token>`
// header and puts the caller's identity into the request context.
func RequireAuth(verifier SessionVerifier) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w, "authentication required")
				return
			}

			user, err := verifier.VerifySession(token)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(ctxkeys.WithUser(r.Context(), user)))
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	apperror.Write(w, apperror.Auth(message))
}
