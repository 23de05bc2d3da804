package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type stubPublisher struct {
	mu   sync.Mutex
	got  []events.OddsChanged
	err  error
	gate chan struct{}
}

func (s *stubPublisher) Publish(ctx context.Context, ev events.OddsChanged) error {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, ev)
	return s.err
}

func (s *stubPublisher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func TestRelayPublishesInOrder(t *testing.T) {
	pub := &stubPublisher{}
	r := New(pub, 8, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	for v := uint64(1); v <= 3; v++ {
		r.Enqueue(events.OddsChanged{EventID: "ev1", Version: v})
	}
	waitFor(t, func() bool { return pub.count() == 3 })

	pub.mu.Lock()
	for i, ev := range pub.got {
		if ev.Version != uint64(i+1) {
			t.Errorf("got[%d].Version = %d", i, ev.Version)
		}
	}
	pub.mu.Unlock()

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v", err)
	}
}

func TestRelayEnqueueNeverBlocks(t *testing.T) {
	pub := &stubPublisher{gate: make(chan struct{})}
	r := New(pub, 1, nil)

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			r.Enqueue(events.OddsChanged{EventID: "ev1", Version: uint64(i)})
		}
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	if len(r.queue) != 1 {
		t.Errorf("queue len = %d", len(r.queue))
	}
}

func TestRelayKeepsRunningAfterError(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	r := New(pub, 4, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	r.Enqueue(events.OddsChanged{EventID: "ev1", Version: 1})
	r.Enqueue(events.OddsChanged{EventID: "ev1", Version: 2})
	waitFor(t, func() bool { return pub.count() == 2 })
}

func TestMultiPublishesToAll(t *testing.T) {
	ok := &stubPublisher{}
	bad := &stubPublisher{err: errors.New("down")}
	m := Multi{bad, ok}

	err := m.Publish(context.Background(), events.OddsChanged{EventID: "ev1"})
	if err == nil {
		t.Error("error from one publisher was swallowed")
	}
	if ok.count() != 1 || bad.count() != 1 {
		t.Errorf("ok=%d bad=%d", ok.count(), bad.count())
	}
}

func TestSnapshotKey(t *testing.T) {
	if got := snapshotKey("ev-9"); got != "toto:odds:current:ev-9" {
		t.Errorf("key = %s", got)
	}
}
