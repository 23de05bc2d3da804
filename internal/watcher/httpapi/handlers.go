package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/feed"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type eventResponse struct {
	Event     events.Event `json:"event"`
	Loaded    bool         `json:"loaded"`
	Error     string       `json:"error,omitempty"`
	CanBet    bool         `json:"can_bet"`
	CanSettle bool         `json:"can_settle"`
	Total     int64        `json:"total_amount"`
	Version   uint64       `json:"version"`
}

type progressResponse struct {
	Percent           float64 `json:"percent"`
	UntilStartSeconds int64   `json:"until_start_seconds"`
	RemainingSeconds  int64   `json:"remaining_seconds"`
	Label             string  `json:"label"`
}

type feedResponse struct {
	State          string  `json:"state"`
	Attempts       int     `json:"attempts"`
	BackoffSeconds float64 `json:"backoff_seconds"`
}

type sessionResponse struct {
	LoggedIn bool   `json:"logged_in"`
	Nickname string `json:"nickname,omitempty"`
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// watched garante que o id da rota é o evento observado
func (a *API) watched(w http.ResponseWriter, r *http.Request) bool {
	if chi.URLParam(r, "id") != a.Detail.EventID() {
		writeError(w, http.StatusNotFound, "event not watched")
		return false
	}
	return true
}

// getEvent devolve o snapshot reconciliado
func (a *API) getEvent(w http.ResponseWriter, r *http.Request) {
	if !a.watched(w, r) {
		return
	}
	v := a.Detail.View()
	resp := eventResponse{
		Event:     v.Event,
		Loaded:    v.Loaded,
		CanBet:    v.CanBet(),
		CanSettle: v.CanSettle(),
		Total:     v.TotalAmount(),
		Version:   v.Version,
	}
	if v.Err != nil {
		resp.Error = v.Err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) getProgress(w http.ResponseWriter, r *http.Request) {
	if !a.watched(w, r) {
		return
	}
	p := a.Detail.Progress(a.location())
	writeJSON(w, http.StatusOK, progressResponse{
		Percent:           p.Percent,
		UntilStartSeconds: int64(p.UntilStart / time.Second),
		RemainingSeconds:  int64(p.Remaining / time.Second),
		Label:             p.Label,
	})
}

// refresh força um GET autoritativo
func (a *API) refresh(w http.ResponseWriter, r *http.Request) {
	if !a.watched(w, r) {
		return
	}
	if err := a.Detail.Refresh(r.Context()); err != nil {
		a.log().Warn("manual refresh failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	a.getEvent(w, r)
}

// getRelay devolve o que consumidores do relay enxergam agora
func (a *API) getRelay(w http.ResponseWriter, r *http.Request) {
	if !a.watched(w, r) {
		return
	}
	if a.Snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "redis relay disabled")
		return
	}
	snap, ok, err := a.Snapshots.Current(r.Context(), a.Detail.EventID())
	if err != nil {
		a.log().Warn("relay snapshot read failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no snapshot")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) getFeed(w http.ResponseWriter, _ *http.Request) {
	if a.Feed == nil {
		writeJSON(w, http.StatusOK, feedResponse{State: feed.Disconnected.String()})
		return
	}
	s := a.Feed.Status()
	writeJSON(w, http.StatusOK, feedResponse{
		State:          s.State.String(),
		Attempts:       s.Attempts,
		BackoffSeconds: s.Backoff.Seconds(),
	})
}

func (a *API) getSession(w http.ResponseWriter, _ *http.Request) {
	if a.Session == nil {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		LoggedIn: a.Session.LoggedIn(),
		Nickname: a.Session.Nickname(),
	})
}
