package results

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// LiveFeed serves GET /results/live. Clients only listen; anything they send
// is discarded.
type LiveFeed struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewLiveFeed accepts browser connections from allowedOrigins. Requests with
// no Origin header (non-browser clients) are always accepted.
func NewLiveFeed(hub *Hub, allowedOrigins []string) *LiveFeed {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}

	return &LiveFeed{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(origins) == 0 || origins[origin]
			},
		},
	}
}

// Serve upgrades the request and streams LiveEvents until the client leaves.
// @Summary		Live results feed
// @Tags		Results
// @Success		101
// @Router		/results/live [GET]
func (f *LiveFeed) Serve(c *gin.Context) {
	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		f.hub.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	s, ok := f.hub.register(conn)
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	go s.writeLoop()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				f.hub.log.WithError(err).Debug("live feed connection closed")
			}
			break
		}
	}
	f.hub.unregister(s)
}
