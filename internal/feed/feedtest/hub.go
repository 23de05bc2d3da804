// Package feedtest sobe um feed de odds WebSocket em processo para testes.
package feedtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const routePrefix = "/api/events/ws/"

// Hub aceita conexões em /api/events/ws/{event_id} e guarda as conexões por evento
type Hub struct {
	upgrader websocket.Upgrader
	srv      *httptest.Server

	mu      sync.Mutex
	subs    map[string]map[*websocket.Conn]struct{}
	dials   map[string]int
	closes  []int
	reject  bool
	changed chan struct{}
}

func NewHub() *Hub {
	h := &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		subs:     make(map[string]map[*websocket.Conn]struct{}),
		dials:    make(map[string]int),
		changed:  make(chan struct{}, 64),
	}
	h.srv = httptest.NewServer(http.HandlerFunc(h.handleWS))
	return h
}

// WSBase devolve a base ws:// para feed.URLFor
func (h *Hub) WSBase() string { return "ws" + strings.TrimPrefix(h.srv.URL, "http") }

func (h *Hub) Close() {
	h.DropAll()
	h.srv.Close()
}

// Reject faz o upgrade falhar com 503 enquanto v for true
func (h *Hub) Reject(v bool) {
	h.mu.Lock()
	h.reject = v
	h.mu.Unlock()
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	eventID := strings.TrimPrefix(r.URL.Path, routePrefix)
	h.mu.Lock()
	h.dials[eventID]++
	reject := h.reject
	h.mu.Unlock()
	h.notify()
	if reject || !strings.HasPrefix(r.URL.Path, routePrefix) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	if _, ok := h.subs[eventID]; !ok {
		h.subs[eventID] = make(map[*websocket.Conn]struct{})
	}
	h.subs[eventID][conn] = struct{}{}
	h.mu.Unlock()
	h.notify()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			var ce *websocket.CloseError
			if errors.As(err, &ce) {
				h.mu.Lock()
				h.closes = append(h.closes, ce.Code)
				h.mu.Unlock()
			}
			break
		}
	}

	h.mu.Lock()
	delete(h.subs[eventID], conn)
	h.mu.Unlock()
	conn.Close()
	h.notify()
}

func (h *Hub) notify() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

// Dials conta as tentativas de conexão (inclusive rejeitadas) para o evento
func (h *Hub) Dials(eventID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dials[eventID]
}

func (h *Hub) Connections(eventID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[eventID])
}

// CloseCodes devolve os códigos de close enviados pelos clientes
func (h *Hub) CloseCodes() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.closes...)
}

// WaitFor espera cond ficar verdadeira, reavaliando a cada mudança no hub
func (h *Hub) WaitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.After(timeout)
	for !cond() {
		select {
		case <-h.changed:
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			return cond()
		}
	}
	return true
}

// Broadcast serializa v e envia para todas as conexões do evento
func (h *Hub) Broadcast(eventID string, v any) {
	b, _ := json.Marshal(v)
	h.SendRaw(eventID, b)
}

func (h *Hub) SendRaw(eventID string, b []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subs[eventID] {
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}

// CloseAll encerra as conexões do evento com o código dado (handshake de close)
func (h *Hub) CloseAll(eventID string, code int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msg := websocket.FormatCloseMessage(code, "server closing")
	for c := range h.subs[eventID] {
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	}
}

// DropAll derruba o TCP sem frame de close (queda anormal)
func (h *Hub) DropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.subs {
		for c := range set {
			_ = c.Close()
		}
	}
}
