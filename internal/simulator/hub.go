package simulator

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/metrics"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

// clientConn é uma conexão de feed inscrita num evento
type clientConn struct {
	id      string
	eventID string
	conn    *websocket.Conn
	mu      sync.Mutex // gorilla aceita um escritor por vez
}

func (c *clientConn) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// hub gerencia os clientes conectados por evento e faz broadcast
type hub struct {
	upgrader websocket.Upgrader
	log      *zap.Logger

	mu      sync.RWMutex
	clients map[string]*clientConn
}

func newHub(log *zap.Logger) *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log:     log,
		clients: make(map[string]*clientConn),
	}
}

func (h *hub) add(c *clientConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
	metrics.SimConnections.Inc()
	h.log.Info("ws client connected", zap.String("client_id", c.id), zap.String("event_id", c.eventID))
}

func (h *hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		metrics.SimConnections.Dec()
		h.log.Info("ws client disconnected", zap.String("client_id", id))
	}
}

// count devolve quantos clientes assinam eventID
func (h *hub) count(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, c := range h.clients {
		if c.eventID == eventID {
			n++
		}
	}
	return n
}

// broadcast envia msg para todos os inscritos no evento da mensagem
func (h *hub) broadcast(msg events.OddsMessage) {
	raw, _ := json.Marshal(msg)
	h.mu.RLock()
	targets := make([]*clientConn, 0, len(h.clients))
	for _, c := range h.clients {
		if c.eventID == msg.EventID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(raw); err != nil {
			h.log.Warn("ws write failed", zap.String("client_id", c.id), zap.Error(err))
			_ = c.conn.Close()
			continue
		}
		metrics.SimFramesSent.Inc()
	}
}

// closeAll encerra todas as conexões com 1001 (going away)
func (h *hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.mu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
			time.Now().Add(time.Second))
		c.mu.Unlock()
		_ = c.conn.Close()
	}
}

// serve faz o upgrade, manda o frame initial e lê até o cliente sair
func (h *hub) serve(w http.ResponseWriter, r *http.Request, eventID string, initial events.OddsMessage) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	c := &clientConn{id: uuid.NewString(), eventID: eventID, conn: conn}
	h.add(c)
	defer func() {
		h.remove(c.id)
		_ = conn.Close()
	}()

	raw, _ := json.Marshal(initial)
	if err := c.write(raw); err != nil {
		return
	}
	metrics.SimFramesSent.Inc()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// oddsMessage converte o evento num frame do feed
func oddsMessage(kind string, ev events.Event) events.OddsMessage {
	msg := events.OddsMessage{Type: kind, EventID: ev.EventID}
	for _, o := range ev.Options {
		e := events.OddsEntry{OptionID: o.OptionID, Odds: o.Odds}
		if kind == events.OddsMessageInitial {
			e.Name = o.Name
		}
		msg.Options = append(msg.Options, e)
	}
	return msg
}
