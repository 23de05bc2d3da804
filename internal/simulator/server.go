package simulator

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

// Server expõe o Store com as mesmas rotas do backend real
type Server struct {
	Store *Store
	hub   *hub
	log   *zap.Logger
}

func NewServer(store *Store, log *zap.Logger) *Server {
	log = logger.OrNop(log)
	return &Server{Store: store, hub: newHub(log), log: log}
}

// Router retorna o roteador HTTP com REST e feed
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Post("/api/auth/login", s.login)
	r.Post("/api/auth/refresh", s.refresh)
	r.Post("/api/auth/logout", s.logout)

	r.Get("/api/events", s.listEvents)
	r.Get("/api/events/ws/{id}", s.feed)
	r.Get("/api/events/{id}", s.getEvent)
	r.Patch("/api/events/{id}/status", s.setStatus)
	r.Post("/api/events/{id}/settle", s.settle)
	r.Post("/api/events/{id}/likes", s.like(true))
	r.Delete("/api/events/{id}/likes", s.like(false))
	r.Post("/api/events/{id}/bets", s.bet)

	r.Get("/api/events/{id}/comments", s.listComments)
	r.Post("/api/events/{id}/comments", s.createComment)
	r.Patch("/api/comments/{id}", s.editComment)
	r.Delete("/api/comments/{id}", s.deleteComment)
	return r
}

// Run aplica Drift a cada interval e transmite as novas odds até ctx acabar
func (s *Server) Run(ctx context.Context, interval time.Duration) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.hub.closeAll()
			return
		case <-ticker.C:
			for _, ev := range s.Store.Drift(r) {
				s.hub.broadcast(oddsMessage(events.OddsMessageUpdate, ev))
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError usa o formato {"error": {"code", "message"}}
func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "ERR_INTERNAL"
	switch {
	case errors.Is(err, ErrNotFound):
		status, code = http.StatusNotFound, "ERR_NOT_FOUND"
	case errors.Is(err, ErrBettingClosed):
		status, code = http.StatusBadRequest, "ERR_BETTING_CLOSED"
	case errors.Is(err, ErrBadRequest):
		status, code = http.StatusBadRequest, "ERR_VALIDATION"
	case errors.Is(err, ErrForbidden):
		status, code = http.StatusForbidden, "ERR_FORBIDDEN"
	}
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": err.Error()}})
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// user devolve o usuário autenticado; ok=false já respondeu 401
func (s *Server) user(w http.ResponseWriter, r *http.Request) (events.AuthUser, bool) {
	u, ok := s.Store.User(bearer(r))
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error_code": "ERR_UNAUTHORIZED", "message": "login required"})
	}
	return u, ok
}

func (s *Server) userID(r *http.Request) string {
	u, _ := s.Store.User(bearer(r))
	return u.UserID
}

func decode(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return ErrBadRequest
	}
	return nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req events.LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p, err := s.Store.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events.AuthResponse{Data: p})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	p, err := s.Store.Refresh(bearer(r))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "refresh token expired"})
		return
	}
	writeJSON(w, http.StatusOK, events.AuthResponse{Data: p})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.Store.Logout(bearer(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	likedOnly := q.Get("liked") == "true"
	uid := s.userID(r)
	if likedOnly && uid == "" {
		s.user(w, r)
		return
	}
	res, err := s.Store.List(events.EventStatus(q.Get("status")), uid, likedOnly, q.Get("cursor"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	var next *string
	if res.NextCursor != "" {
		next = &res.NextCursor
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": res.Events, "next_cursor": next, "has_more": res.HasMore})
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := s.Store.Get(chi.URLParam(r, "id"), s.userID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) feed(w http.ResponseWriter, r *http.Request) {
	ev, err := s.Store.Get(chi.URLParam(r, "id"), "")
	if err != nil {
		writeError(w, err)
		return
	}
	s.hub.serve(w, r, ev.EventID, oddsMessage(events.OddsMessageInitial, ev))
}

func (s *Server) setStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.user(w, r); !ok {
		return
	}
	var req events.UpdateEventStatusRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Store.SetStatus(chi.URLParam(r, "id"), req.Status); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) settle(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.user(w, r); !ok {
		return
	}
	var req events.SettleEventRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Store.Settle(chi.URLParam(r, "id"), req.WinnerOptionIDs); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) like(liked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.user(w, r)
		if !ok {
			return
		}
		if err := s.Store.SetLike(chi.URLParam(r, "id"), u.UserID, liked); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// bet registra a aposta e transmite as odds novas para os inscritos
func (s *Server) bet(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	var req events.CreateBetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, ev, err := s.Store.Bet(chi.URLParam(r, "id"), u.UserID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	s.hub.broadcast(oddsMessage(events.OddsMessageUpdate, ev))
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	res, err := s.Store.Comments(chi.URLParam(r, "id"), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	var req events.CommentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := s.Store.AddComment(chi.URLParam(r, "id"), u, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) editComment(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	var req events.CommentRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := s.Store.EditComment(chi.URLParam(r, "id"), u, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	u, ok := s.user(w, r)
	if !ok {
		return
	}
	if err := s.Store.DeleteComment(chi.URLParam(r, "id"), u); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
