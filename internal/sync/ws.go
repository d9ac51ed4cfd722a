package sync

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // local single-user service; restrict if ever exposed
	},
}

// WSHandler upgrades a reader to the bookmark event stream. A `story` query
// parameter narrows the feed to that story id.
func WSHandler(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		story := strings.TrimSpace(c.Query("story"))
		hub.AddWS(ws, story)
		hub.WelcomeWS(ws)
		log.Printf("[ws] client connected (story=%q)", story)

		// Keep the connection alive; incoming messages are ignored.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.RemoveWS(ws)
		log.Println("[ws] client disconnected")
	}
}
