package sync

import (
	"bufio"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Hub fans bookmark events out to connected readers over TCP lines and
// WebSocket frames. Each subscriber carries a story filter: an empty filter
// receives every event, a story id narrows the feed to that one story.
type Hub struct {
	mu        sync.Mutex
	clients   map[net.Conn]string // value is the story filter, "" for all
	wsClients map[*websocket.Conn]string
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[net.Conn]string),
		wsClients: make(map[*websocket.Conn]string),
	}
}

func (h *Hub) Add(conn net.Conn) {
	h.mu.Lock()
	h.clients[conn] = ""
	h.mu.Unlock()
}

// Subscribe narrows an existing TCP subscriber to one story id. Subscribing
// to "" widens the feed back to everything.
func (h *Hub) Subscribe(conn net.Conn, storyID string) {
	h.mu.Lock()
	if _, ok := h.clients[conn]; ok {
		h.clients[conn] = storyID
	}
	h.mu.Unlock()
}

func (h *Hub) Remove(conn net.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *Hub) AddWS(ws *websocket.Conn, storyID string) {
	h.mu.Lock()
	h.wsClients[ws] = storyID
	h.mu.Unlock()
}

func (h *Hub) RemoveWS(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.wsClients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

// Broadcast delivers one bookmark event to every subscriber whose story
// filter matches. Dead connections are evicted on write failure.
func (h *Hub) Broadcast(ev BookmarkEvent) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	for c, filter := range h.clients {
		if filter != "" && filter != ev.ID {
			continue
		}
		_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
		w := bufio.NewWriter(c)
		if _, err := w.Write(b); err != nil {
			_ = c.Close()
			delete(h.clients, c)
			continue
		}
		if err := w.Flush(); err != nil {
			_ = c.Close()
			delete(h.clients, c)
			continue
		}
	}

	for ws, filter := range h.wsClients {
		if filter != "" && filter != ev.ID {
			continue
		}
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.wsClients, ws)
		}
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		TCPClients: len(h.clients),
		WSClients:  len(h.wsClients),
	}
}

// welcomePayload is the first line every subscriber receives, shaped like
// the event stream that follows it.
func (h *Hub) welcomePayload() []byte {
	b, err := json.Marshal(WelcomeEvent(h.Count()))
	if err != nil {
		return nil
	}
	return append(b, '\n')
}

func (h *Hub) Welcome(conn net.Conn) {
	if b := h.welcomePayload(); b != nil {
		_, _ = conn.Write(b)
	}
}

func (h *Hub) WelcomeWS(ws *websocket.Conn) {
	if b := h.welcomePayload(); b != nil {
		_ = ws.WriteMessage(websocket.TextMessage, b)
	}
}
