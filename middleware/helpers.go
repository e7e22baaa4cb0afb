package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fogna/football-stats/models"
)

type contextKey string

const sessionContextKey contextKey = "session"

func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(*models.Session)
	if !ok || session == nil || !session.Authenticated {
		return nil, false
	}
	return session, true
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
