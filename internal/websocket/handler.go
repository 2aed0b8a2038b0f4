package websocket

import (
	"log"
	"net/http"

	"cabride-backend/internal/auth"
	"cabride-backend/internal/middleware"

	"github.com/gorilla/websocket"
	"github.com/jmoiron/sqlx"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		// TODO: Restrict in production
		return true
	},
}

// HandleWebSocket upgrades the HTTP connection to a WebSocket. Browsers
// cannot set an Authorization header on WebSocket requests, so the bearer
// token arrives as a query parameter.
func HandleWebSocket(hub *Hub, db *sqlx.DB, jwtSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		email, err := auth.ParseSubject(tokenString, jwtSecret)
		if err != nil {
			log.Printf("❌ Invalid websocket token: %v", err)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		user, err := middleware.LoadUserByEmail(db, email)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("❌ WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(user.ID, conn, hub)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	}
}
