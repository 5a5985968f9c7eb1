package websocket

import (
	"net/http"
	"time"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/todo/internal/auth"
)

// HandleWebSocket returns an HTTP handler that upgrades authenticated
// requests and streams the caller's task events.
func HandleWebSocket(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.RequireUser(r.Context())
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Lift the server's per-request deadlines for the long-lived stream.
		rc := http.NewResponseController(w)
		rc.SetReadDeadline(time.Time{})
		rc.SetWriteDeadline(time.Time{})

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			hub.logger.Warn("accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		hub.logger.Debug("client connected", "user_id", id.UserID)
		NewClient(hub, conn, id).Run(r.Context())
	}
}
