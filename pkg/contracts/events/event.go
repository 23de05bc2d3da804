package events

// EventStatus é o ciclo de vida de um evento, controlado pelo backend.
type EventStatus string

const (
	StatusReady     EventStatus = "READY"
	StatusOpen      EventStatus = "OPEN"
	StatusClosed    EventStatus = "CLOSED"
	StatusSettled   EventStatus = "SETTLED"
	StatusCancelled EventStatus = "CANCELLED"
)

// AllStatuses lista os status na ordem exibida pelos filtros.
var AllStatuses = []EventStatus{StatusReady, StatusOpen, StatusClosed, StatusSettled, StatusCancelled}

// Valid indica se o status é um dos cinco conhecidos.
func (s EventStatus) Valid() bool {
	switch s {
	case StatusReady, StatusOpen, StatusClosed, StatusSettled, StatusCancelled:
		return true
	}
	return false
}

// Event é o payload de resumo/detalhe devolvido por GET /api/events e GET /api/events/{id}.
// Campos opcionais são ponteiros para distinguir "ausente" de zero.
type Event struct {
	EventID     string      `json:"event_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      EventStatus `json:"status"`
	StartAt     string      `json:"start_at,omitempty"`
	EndAt       string      `json:"end_at,omitempty"`
	CreatedAt   string      `json:"created_at,omitempty"`
	LikeCount   int64       `json:"like_count"`
	IsLiked     *bool       `json:"is_liked"`    // nil = não autenticado
	IsEligible  *bool       `json:"is_eligible"` // só faz sentido em READY
	Options     []Option    `json:"options"`
	Images      []Image     `json:"images"`

	TotalParticipants *int64 `json:"total_participants_count,omitempty"`
}

// Option é uma opção apostável de um evento.
type Option struct {
	OptionID          string   `json:"option_id"`
	Name              string   `json:"name"`
	Odds              *float64 `json:"odds"`
	OptionTotalAmount int64    `json:"option_total_amount"`
	ParticipantCount  int64    `json:"participant_count"`
	OptionImageURL    string   `json:"option_image_url,omitempty"`
	IsWinner          *bool    `json:"is_winner,omitempty"`
}

type Image struct {
	ImageURL string `json:"image_url"`
}

// ListEventsResult é a forma normalizada da listagem paginada por cursor.
// HasMore é nil quando o backend não informou has_more.
type ListEventsResult struct {
	Events     []Event `json:"events"`
	NextCursor string  `json:"next_cursor,omitempty"`
	HasMore    *bool   `json:"has_more,omitempty"`
}

type UpdateEventStatusRequest struct {
	Status EventStatus `json:"status"`
}

type SettleEventRequest struct {
	WinnerOptionIDs []string `json:"winner_option_id"`
}

// CreateEventRequest vai no campo "data" do multipart de POST /api/events.
type CreateEventRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	StartAt     string              `json:"start_at"`
	EndAt       string              `json:"end_at"`
	Images      []CreateEventImage  `json:"images,omitempty"`
	Options     []CreateEventOption `json:"options"`
}

type CreateEventImage struct {
	ImageIndex int `json:"image_index"`
}

// CreateEventOption referencia a imagem pelo índice em image_files; -1 = sem imagem.
type CreateEventOption struct {
	Name             string `json:"name"`
	OptionImageIndex int    `json:"option_image_index"`
}

type CreateEventResponse struct {
	EventID string      `json:"event_id"`
	Status  EventStatus `json:"status,omitempty"`
}
