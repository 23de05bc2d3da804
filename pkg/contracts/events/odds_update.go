package events

import "time"

// Tipos de mensagem aceitos no feed de odds.
const (
	OddsMessageInitial = "initial"
	OddsMessageUpdate  = "odds_update"
)

// OddsEntry é a odd de uma opção dentro de uma mensagem do feed.
// Name só vem em mensagens "initial".
type OddsEntry struct {
	OptionID string   `json:"option_id"`
	Name     string   `json:"name,omitempty"`
	Odds     *float64 `json:"odds"`
}

// OddsMessage é um frame do feed /api/events/ws/{event_id}
type OddsMessage struct {
	Type    string      `json:"type"`
	EventID string      `json:"event_id"`
	Options []OddsEntry `json:"options"`
}

// OddsChanged é publicado no tópico de odds após a reconciliação local
type OddsChanged struct {
	EventID    string             `json:"event_id"`
	Status     EventStatus        `json:"status"`
	Odds       map[string]float64 `json:"odds"`
	Source     string             `json:"source"`  // "rest" | "feed" | "action"
	Version    uint64             `json:"version"` // incrementado a cada mudança aplicada
	ObservedAt time.Time          `json:"observed_at"`
}
