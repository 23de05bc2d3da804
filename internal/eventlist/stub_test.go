package eventlist

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/wafflestudio/23-5-team7-web/internal/api"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

// pageStub responde na hora, por cursor
type pageStub struct {
	mu    sync.Mutex
	pages map[string]events.ListEventsResult
	err   error
	calls []api.ListEventsParams
}

func (s *pageStub) ListEvents(_ context.Context, p api.ListEventsParams) (events.ListEventsResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, p)
	if s.err != nil {
		return events.ListEventsResult{}, s.err
	}
	return s.pages[p.Cursor], nil
}

func (s *pageStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// pendingCall é uma requisição segurada até o teste responder
type pendingCall struct {
	params api.ListEventsParams
	reply  chan pageReply
}

type pageReply struct {
	res events.ListEventsResult
	err error
}

// manualStub ignora o ctx de propósito, para simular respostas que chegam atrasadas
type manualStub struct {
	calls chan *pendingCall
	done  chan struct{}
}

func newManualStub(t *testing.T) *manualStub {
	s := &manualStub{calls: make(chan *pendingCall, 16), done: make(chan struct{})}
	t.Cleanup(func() { close(s.done) })
	return s
}

func (s *manualStub) ListEvents(_ context.Context, p api.ListEventsParams) (events.ListEventsResult, error) {
	c := &pendingCall{params: p, reply: make(chan pageReply, 1)}
	s.calls <- c
	select {
	case r := <-c.reply:
		return r.res, r.err
	case <-s.done:
		return events.ListEventsResult{}, context.Canceled
	}
}

func (s *manualStub) next(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case c := <-s.calls:
		return c
	case <-time.After(time.Second):
		t.Fatal("expected a pending list call")
		return nil
	}
}

func evs(ids ...string) []events.Event {
	out := make([]events.Event, len(ids))
	for i, id := range ids {
		out[i] = events.Event{EventID: id, Title: "event " + id}
	}
	return out
}

func page(cursor string, hasMore *bool, ids ...string) events.ListEventsResult {
	return events.ListEventsResult{Events: evs(ids...), NextCursor: cursor, HasMore: hasMore}
}

func ids(items []events.Event) string {
	s := ""
	for i, ev := range items {
		if i > 0 {
			s += ","
		}
		s += ev.EventID
	}
	return s
}

func boolPtr(b bool) *bool { return &b }

