package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/fogna/football-stats/live"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler пускает только Origin из списка; пустой Origin (не браузер) разрешен.
func NewWebSocketHandler(hub *live.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/")] = struct{}{}
	}

	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, ok := allowed["*"]; ok {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if strings.EqualFold(u.Host, r.Host) {
					return true
				}
				_, ok := allowed[strings.ToLower(u.Scheme+"://"+u.Host)]
				return ok
			},
		},
	}
}

// ServeWs подключает клиента к общему каналу обновлений.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP ошибку клиенту
		slog.Default().Warn("failed to upgrade websocket connection", slog.Any("error", err))
		return
	}
	h.hub.Attach(conn)
}
