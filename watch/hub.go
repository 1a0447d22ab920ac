// Package watch pushes class-collection change events to websocket
// subscribers, replacing the client-side observable collections the mobile
// app binds its screens to.
package watch

import (
	"encoding/json"
	"net/http"
	"sync"

	"courtside/middleware"
	"courtside/models"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins — adjust for production if needed
		return true
	},
}

// ClassEvent is the wire payload: action is one of created, booked,
// finished, updated, deleted.
type ClassEvent struct {
	Action string           `json:"action"`
	Class  models.ClassSlot `json:"class"`
}

// Hub fans class change events out to every connected subscriber.
// It implements ledger.Notifier.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool), log: log}
}

// ClassChanged broadcasts one change event. Dead connections are dropped.
func (h *Hub) ClassChanged(action string, class models.ClassSlot) {
	data, err := json.Marshal(ClassEvent{Action: action, Class: class})
	if err != nil {
		h.log.Error("class event marshal failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// HandleWS authenticates the subscriber, upgrades the request, and keeps
// the subscription open until the client disconnects. Browsers cannot set
// headers on websocket dials, so a token query parameter is accepted too.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = "Bearer " + r.URL.Query().Get("token")
	}
	claims, err := middleware.ValidateJWT(token)
	if err != nil || claims.UserID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "WebSocket upgrade failed", http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	h.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
}

// Stop closes every open subscription.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}
