package events

// BetStatus é o status de uma aposta no read model "minhas apostas".
type BetStatus string

const (
	BetPending  BetStatus = "PENDING"
	BetWin      BetStatus = "WIN"
	BetLose     BetStatus = "LOSE"
	BetRefunded BetStatus = "REFUNDED"
)

type CreateBetRequest struct {
	OptionID  string `json:"option_id"`
	BetAmount int64  `json:"bet_amount"`
}

type CreateBetResponse struct {
	BetID     string `json:"bet_id"`
	EventID   string `json:"event_id,omitempty"`
	OptionID  string `json:"option_id,omitempty"`
	BetAmount int64  `json:"bet_amount,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Bet é imutável do ponto de vista do cliente.
type Bet struct {
	BetID      string    `json:"bet_id"`
	EventID    string    `json:"event_id"`
	EventTitle string    `json:"event_title"`
	OptionID   string    `json:"option_id"`
	OptionName string    `json:"option_name"`
	Amount     int64     `json:"amount"`
	Status     BetStatus `json:"status"`
	CreatedAt  string    `json:"created_at"`
}

type MyBetsResponse struct {
	Bets       []Bet `json:"bets"`
	TotalCount int   `json:"total_count"`
}

type PointHistoryItem struct {
	HistoryID    string `json:"history_id,omitempty"`
	BetID        string `json:"bet_id,omitempty"`
	Reason       string `json:"reason,omitempty"`
	ChangeAmount int64  `json:"change_amount"`
	CreatedAt    string `json:"created_at,omitempty"`
}

type PointHistoryResponse struct {
	History    []PointHistoryItem `json:"history"`
	TotalCount int                `json:"total_count"`
}
