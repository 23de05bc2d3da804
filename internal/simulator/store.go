// Package simulator é um backend SnuToto falso para desenvolvimento local:
// REST de eventos, apostas, curtidas e comentários, mais o feed de odds.
package simulator

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrBettingClosed = errors.New("betting is closed for this event")
	ErrBadRequest    = errors.New("bad request")
	ErrForbidden     = errors.New("forbidden")
)

// Store guarda o estado em memória. Odds seguem o modelo de pool:
// total apostado no evento dividido pelo total da opção.
type Store struct {
	mu       sync.Mutex
	now      func() time.Time
	order    []string
	events   map[string]*events.Event
	likes    map[string]map[string]bool // evento -> usuário -> curtiu
	comments map[string][]events.Comment
	users    map[string]events.AuthUser // token -> usuário
	nextCmt  int
}

func NewStore(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	s := &Store{
		now:      now,
		events:   make(map[string]*events.Event),
		likes:    make(map[string]map[string]bool),
		comments: make(map[string][]events.Comment),
		users:    make(map[string]events.AuthUser),
	}
	s.seed()
	return s
}

// Catálogo fixo de eventos simulados
func (s *Store) seed() {
	t := s.now().UTC()
	add := func(id, title string, status events.EventStatus, start, end time.Duration, opts map[string]int64) {
		ev := &events.Event{
			EventID:   id,
			Title:     title,
			Status:    status,
			StartAt:   t.Add(start).Format(time.RFC3339),
			EndAt:     t.Add(end).Format(time.RFC3339),
			CreatedAt: t.Add(-48 * time.Hour).Format(time.RFC3339),
		}
		names := make([]string, 0, len(opts))
		for n := range opts {
			names = append(names, n)
		}
		sort.Strings(names)
		for i, n := range names {
			ev.Options = append(ev.Options, events.Option{
				OptionID:          fmt.Sprintf("%s-opt-%d", id, i+1),
				Name:              n,
				OptionTotalAmount: opts[n],
			})
		}
		reprice(ev)
		s.events[id] = ev
		s.order = append(s.order, id)
	}
	add("evt-001", "Yonsei-Korea rivalry: who wins the rugby match?", events.StatusOpen, -2*time.Hour, 6*time.Hour,
		map[string]int64{"Korea": 12000, "Yonsei": 9000})
	add("evt-002", "Will the library stay open 24h during finals?", events.StatusOpen, -24*time.Hour, 72*time.Hour,
		map[string]int64{"Yes": 3000, "No": 7000})
	add("evt-003", "Campus festival headliner", events.StatusReady, 26*time.Hour, 96*time.Hour,
		map[string]int64{"Band A": 0, "Band B": 0, "Band C": 0})
	add("evt-004", "First snow before December?", events.StatusClosed, -240*time.Hour, -1*time.Hour,
		map[string]int64{"Yes": 5000, "No": 5000})
}

func round2(f float64) float64 { return math.Round(f*100) / 100 }

// reprice recalcula as odds de todas as opções
func reprice(ev *events.Event) {
	var total int64
	for _, o := range ev.Options {
		total += o.OptionTotalAmount
	}
	for i := range ev.Options {
		o := &ev.Options[i]
		if o.OptionTotalAmount <= 0 || total <= 0 {
			o.Odds = nil
			continue
		}
		v := round2(math.Max(1.01, float64(total)/float64(o.OptionTotalAmount)))
		o.Odds = &v
	}
}

func cloneEvent(ev *events.Event) events.Event {
	out := *ev
	out.Options = make([]events.Option, len(ev.Options))
	for i, o := range ev.Options {
		if o.Odds != nil {
			v := *o.Odds
			o.Odds = &v
		}
		out.Options[i] = o
	}
	return out
}

// view aplica is_liked do ponto de vista de userID ("" = anônimo)
func (s *Store) view(ev *events.Event, userID string) events.Event {
	out := cloneEvent(ev)
	out.LikeCount = int64(len(s.likes[ev.EventID]))
	if userID != "" {
		liked := s.likes[ev.EventID][userID]
		out.IsLiked = &liked
	}
	return out
}

// Login aceita qualquer senha com 8+ caracteres; o apelido é a parte local do email
func (s *Store) Login(email, password string) (events.AuthPayload, error) {
	email = strings.TrimSpace(email)
	at := strings.IndexByte(email, '@')
	if at <= 0 || len(password) < 8 {
		return events.AuthPayload{}, ErrBadRequest
	}
	u := events.AuthUser{UserID: "usr-" + email[:at], Email: email, Nickname: email[:at]}
	tok := uuid.NewString()
	s.mu.Lock()
	s.users[tok] = u
	s.mu.Unlock()
	return events.AuthPayload{AccessToken: tok, RefreshToken: uuid.NewString(), User: &u}, nil
}

// Refresh troca o token antigo por um novo
func (s *Store) Refresh(token string) (events.AuthPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[token]
	if !ok {
		return events.AuthPayload{}, ErrForbidden
	}
	delete(s.users, token)
	tok := uuid.NewString()
	s.users[tok] = u
	return events.AuthPayload{AccessToken: tok, User: &u}, nil
}

// Logout invalida o token; token desconhecido não é erro
func (s *Store) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, token)
}

func (s *Store) User(token string) (events.AuthUser, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[token]
	return u, ok
}

// List pagina por offset codificado no cursor. likedOnly exige userID.
func (s *Store) List(status events.EventStatus, userID string, likedOnly bool, cursor string, limit int) (events.ListEventsResult, error) {
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return events.ListEventsResult{}, ErrBadRequest
		}
		start = n
	}
	if limit <= 0 {
		limit = 10
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []events.Event
	for _, id := range s.order {
		ev := s.events[id]
		if status != "" && ev.Status != status {
			continue
		}
		if likedOnly && !s.likes[id][userID] {
			continue
		}
		matched = append(matched, s.view(ev, userID))
	}
	if start > len(matched) {
		start = len(matched)
	}
	end := min(start+limit, len(matched))
	more := end < len(matched)
	out := events.ListEventsResult{Events: matched[start:end], HasMore: &more}
	if more {
		out.NextCursor = strconv.Itoa(end)
	}
	return out, nil
}

func (s *Store) Get(id, userID string) (events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return events.Event{}, ErrNotFound
	}
	return s.view(ev, userID), nil
}

func (s *Store) SetLike(id, userID string, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	if s.likes[id] == nil {
		s.likes[id] = make(map[string]bool)
	}
	if liked {
		s.likes[id][userID] = true
	} else {
		delete(s.likes[id], userID)
	}
	return nil
}

// Bet registra a aposta e devolve o evento reprecificado
func (s *Store) Bet(id, userID string, req events.CreateBetRequest) (events.CreateBetResponse, events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return events.CreateBetResponse{}, events.Event{}, ErrNotFound
	}
	if ev.Status != events.StatusOpen {
		return events.CreateBetResponse{}, events.Event{}, ErrBettingClosed
	}
	if req.BetAmount <= 0 {
		return events.CreateBetResponse{}, events.Event{}, ErrBadRequest
	}
	idx := -1
	for i, o := range ev.Options {
		if o.OptionID == req.OptionID {
			idx = i
		}
	}
	if idx < 0 {
		return events.CreateBetResponse{}, events.Event{}, ErrBadRequest
	}
	ev.Options[idx].OptionTotalAmount += req.BetAmount
	ev.Options[idx].ParticipantCount++
	reprice(ev)
	res := events.CreateBetResponse{
		BetID:     "bet-" + uuid.NewString(),
		EventID:   id,
		OptionID:  req.OptionID,
		BetAmount: req.BetAmount,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	return res, s.view(ev, userID), nil
}

func (s *Store) SetStatus(id string, status events.EventStatus) error {
	if !status.Valid() {
		return ErrBadRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return ErrNotFound
	}
	ev.Status = status
	return nil
}

func (s *Store) Settle(id string, winners []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return ErrNotFound
	}
	if ev.Status != events.StatusClosed || len(winners) == 0 {
		return ErrBadRequest
	}
	win := make(map[string]bool, len(winners))
	for _, w := range winners {
		win[w] = true
	}
	for i := range ev.Options {
		v := win[ev.Options[i].OptionID]
		ev.Options[i].IsWinner = &v
	}
	ev.Status = events.StatusSettled
	return nil
}

// Drift simula apostas da casa: um valor aleatório numa opção de cada evento
// OPEN. Devolve os eventos alterados.
func (s *Store) Drift(r *rand.Rand) []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.Event
	for _, id := range s.order {
		ev := s.events[id]
		if ev.Status != events.StatusOpen || len(ev.Options) == 0 {
			continue
		}
		o := &ev.Options[r.Intn(len(ev.Options))]
		o.OptionTotalAmount += int64(100 + r.Intn(900))
		reprice(ev)
		out = append(out, cloneEvent(ev))
	}
	return out
}

// --- comentários

func (s *Store) Comments(eventID, cursor string, limit int) (events.ListCommentsResult, error) {
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return events.ListCommentsResult{}, ErrBadRequest
		}
		start = n
	}
	if limit <= 0 {
		limit = 20
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return events.ListCommentsResult{}, ErrNotFound
	}
	all := s.comments[eventID]
	start = min(start, len(all))
	end := min(start+limit, len(all))
	out := events.ListCommentsResult{
		Comments: append([]events.Comment(nil), all[start:end]...),
		HasMore:  end < len(all),
	}
	if out.HasMore {
		next := strconv.Itoa(end)
		out.NextCursor = &next
	}
	return out, nil
}

// AddComment insere no topo; a lista fica sempre do mais novo para o mais antigo
func (s *Store) AddComment(eventID string, u events.AuthUser, content string) (events.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return events.Comment{}, ErrBadRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[eventID]; !ok {
		return events.Comment{}, ErrNotFound
	}
	s.nextCmt++
	c := events.Comment{
		CommentID: fmt.Sprintf("cmt-%06d", s.nextCmt),
		EventID:   eventID,
		UserID:    u.UserID,
		Nickname:  u.Nickname,
		Content:   content,
		CreatedAt: s.now().UTC().Format(time.RFC3339Nano),
	}
	s.comments[eventID] = append([]events.Comment{c}, s.comments[eventID]...)
	return c, nil
}

func (s *Store) EditComment(commentID string, u events.AuthUser, content string) (events.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return events.Comment{}, ErrBadRequest
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for eid, list := range s.comments {
		for i := range list {
			if list[i].CommentID != commentID {
				continue
			}
			if list[i].UserID != u.UserID {
				return events.Comment{}, ErrForbidden
			}
			at := s.now().UTC().Format(time.RFC3339Nano)
			list[i].Content = content
			list[i].UpdatedAt = &at
			s.comments[eid] = list
			return list[i], nil
		}
	}
	return events.Comment{}, ErrNotFound
}

func (s *Store) DeleteComment(commentID string, u events.AuthUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for eid, list := range s.comments {
		for i := range list {
			if list[i].CommentID != commentID {
				continue
			}
			if list[i].UserID != u.UserID {
				return ErrForbidden
			}
			s.comments[eid] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
