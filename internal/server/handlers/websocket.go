// internal/server/handlers/websocket.go

package handlers

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"hershield/internal/service/hub"
)

// upgrader is used to upgrade HTTP connections to WebSocket
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, this should be more restrictive
		return true
	},
}

// TrackingWebSocketHandler upgrades a connection and hands it to the
// event hub, which assigns the connection its identity. Anyone who can
// reach the endpoint may emit location events; there is no
// authentication on the event channel.
func TrackingWebSocketHandler(eventHub *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("Failed to upgrade to WebSocket: %v", err)
			return
		}

		identity := eventHub.ServeConn(conn)
		log.Printf("New WebSocket connection %s from %s", identity, r.RemoteAddr)
	}
}
