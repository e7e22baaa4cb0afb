package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fogna/football-stats/models"
)

const SessionCookieName = "fogna_session"

// TokenParser проверяет токен и возвращает сессию.
type TokenParser interface {
	ParseToken(token string) (*models.Session, error)
}

// Authenticate accepts "Authorization: Bearer <token>" or the session cookie and puts
// the resulting session into the request context.
func Authenticate(parser TokenParser, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			session, err := parser.ParseToken(token)
			if err != nil {
				logger.Debug("rejected token", slog.String("path", r.URL.Path), slog.Any("error", err))
				writeError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// RequireRole must run after Authenticate.
func RequireRole(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "insufficient role for this operation")
		})
	}
}

func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, found := strings.Cut(h, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}
