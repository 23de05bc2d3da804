package detail

import (
	"context"
	"sync"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type stubAPI struct {
	mu sync.Mutex

	event    events.Event
	getErr   error
	getCalls int

	likeErr    error
	likeCalls  int
	unlikeCall int
	duringLike func() // roda no meio da chamada de like, sem o lock

	betErr error
	bets   []events.CreateBetRequest

	statusErr error
	settled   [][]string
}

func (s *stubAPI) GetEvent(_ context.Context, id string) (events.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getErr != nil {
		return events.Event{}, s.getErr
	}
	ev := cloneEvent(s.event)
	ev.EventID = id
	return ev, nil
}

func (s *stubAPI) LikeEvent(context.Context, string) error {
	s.mu.Lock()
	s.likeCalls++
	hook, err := s.duringLike, s.likeErr
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (s *stubAPI) UnlikeEvent(context.Context, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unlikeCall++
	return s.likeErr
}

func (s *stubAPI) CreateBet(_ context.Context, _ string, req events.CreateBetRequest) (events.CreateBetResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.betErr != nil {
		return events.CreateBetResponse{}, s.betErr
	}
	s.bets = append(s.bets, req)
	for i := range s.event.Options {
		if s.event.Options[i].OptionID == req.OptionID {
			s.event.Options[i].OptionTotalAmount += req.BetAmount
			s.event.Options[i].ParticipantCount++
		}
	}
	return events.CreateBetResponse{BetID: "b1", OptionID: req.OptionID, BetAmount: req.BetAmount}, nil
}

func (s *stubAPI) UpdateEventStatus(ctx context.Context, id string, status events.EventStatus) (events.Event, error) {
	s.mu.Lock()
	if s.statusErr != nil {
		s.mu.Unlock()
		return events.Event{}, s.statusErr
	}
	s.event.Status = status
	s.mu.Unlock()
	return s.GetEvent(ctx, id)
}

func (s *stubAPI) SettleEvent(ctx context.Context, id string, winners []string) (events.Event, error) {
	s.mu.Lock()
	s.settled = append(s.settled, winners)
	s.event.Status = events.StatusSettled
	for i := range s.event.Options {
		win := false
		for _, w := range winners {
			if w == s.event.Options[i].OptionID {
				win = true
			}
		}
		s.event.Options[i].IsWinner = boolPtr(win)
	}
	s.mu.Unlock()
	return s.GetEvent(ctx, id)
}

func (s *stubAPI) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls
}

func odds(f float64) *float64 { return &f }

// scenarioEvent é o evento E1 aberto com opções Home/Away
func scenarioEvent() events.Event {
	return events.Event{
		EventID:   "E1",
		Title:     "Final",
		Status:    events.StatusOpen,
		StartAt:   "2025-03-01T10:00:00Z",
		EndAt:     "2025-03-01T12:00:00Z",
		LikeCount: 4,
		IsLiked:   boolPtr(false),
		Options: []events.Option{
			{OptionID: "o1", Name: "Home", Odds: odds(1.8), OptionTotalAmount: 100},
			{OptionID: "o2", Name: "Away", Odds: odds(2.1), OptionTotalAmount: 50},
		},
	}
}

func loadedEngine(t interface{ Fatalf(string, ...any) }, api *stubAPI) *Engine {
	e := New(api, "E1", nil)
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return e
}
