package eventlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newLoader(l Lister) (*Loader, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return New(l, Options{Now: clock.Now}), clock
}

var nearBottom = Viewport{ScrollTop: 900, ViewportHeight: 800, DocumentHeight: 1750}

func TestScenarioLoadMore(t *testing.T) {
	stub := &pageStub{pages: map[string]events.ListEventsResult{
		"":   page("c1", boolPtr(true), "a", "b", "c"),
		"c1": page("c2", boolPtr(true), "c", "d", "e", "f", "g"),
	}}
	l, _ := newLoader(stub)
	ctx := context.Background()

	l.Start(ctx)
	l.Wait()
	if cur, ok := l.Cursor(); !ok || cur != "c1" {
		t.Fatalf("cursor = %q, %v", cur, ok)
	}

	if !l.Scroll(ctx, SourceScroll, nearBottom) {
		t.Fatal("near-bottom scroll did not load")
	}
	l.Wait()

	s := l.State()
	if got := ids(s.Items); got != "a,b,c,d,e,f,g" {
		t.Errorf("items = %s", got)
	}
	if cur, _ := l.Cursor(); cur != "c2" || !s.HasMore {
		t.Errorf("cursor = %q has_more = %v", cur, s.HasMore)
	}
	if stub.calls[1].Cursor != "c1" || stub.calls[1].Limit != 10 {
		t.Errorf("second call params %+v", stub.calls[1])
	}
}

func TestStaleResponseDiscarded(t *testing.T) {
	stub := newManualStub(t)
	l, _ := newLoader(stub)
	ctx := context.Background()

	l.Start(ctx)
	first := stub.next(t)
	l.SetStatus(ctx, events.StatusOpen)
	second := stub.next(t)
	if second.params.Status != events.StatusOpen {
		t.Fatalf("second call status %q", second.params.Status)
	}

	second.reply <- pageReply{res: page("", nil, "x")}
	time.Sleep(20 * time.Millisecond)
	first.reply <- pageReply{res: page("c9", boolPtr(true), "a", "b")}
	l.Wait()

	s := l.State()
	if got := ids(s.Items); got != "x" {
		t.Errorf("items = %s, stale page applied", got)
	}
	if s.Loading {
		t.Error("loading stuck")
	}
	if _, ok := l.Cursor(); ok {
		t.Error("stale cursor applied")
	}
}

func TestOverlappingFetchSuppressed(t *testing.T) {
	stub := newManualStub(t)
	l, _ := newLoader(stub)
	ctx := context.Background()

	l.Start(ctx)
	stub.next(t).reply <- pageReply{res: page("c1", nil, "a")}
	l.Wait()

	if !l.LoadMore(ctx) {
		t.Fatal("first LoadMore suppressed")
	}
	if l.LoadMore(ctx) {
		t.Error("overlapping LoadMore issued")
	}
	if !l.State().Loading {
		t.Error("expected loading")
	}
	stub.next(t).reply <- pageReply{res: page("", nil, "b")}
	l.Wait()
	if s := l.State(); !s.Exhausted() || ids(s.Items) != "a,b" {
		t.Errorf("state = %+v", s)
	}
}

func TestResetKeyDedup(t *testing.T) {
	stub := &pageStub{pages: map[string]events.ListEventsResult{"": page("", nil, "a")}}
	l, _ := newLoader(stub)
	ctx := context.Background()

	l.Start(ctx)
	l.Wait()
	l.Start(ctx)
	l.SetFilter(ctx, Filter{})
	l.Wait()
	if n := stub.callCount(); n != 1 {
		t.Fatalf("calls = %d, want 1", n)
	}

	l.SetLikedOnly(ctx, true)
	l.Wait()
	l.Refresh(ctx)
	l.Wait()
	if n := stub.callCount(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
	if !stub.calls[1].Liked || !stub.calls[2].Liked {
		t.Error("liked filter not sent")
	}
}

func TestTimeoutReleasesLoading(t *testing.T) {
	stub := newManualStub(t)
	l := New(stub, Options{Timeout: 20 * time.Millisecond})

	l.Start(context.Background())
	l.Wait()

	s := l.State()
	if !errors.Is(s.Err, ErrTimeout) {
		t.Fatalf("err = %v", s.Err)
	}
	if s.Loading || !s.HasMore || len(s.Items) != 0 {
		t.Errorf("state after timeout = %+v", s)
	}
}

func TestResetErrorClearsList(t *testing.T) {
	stub := &pageStub{pages: map[string]events.ListEventsResult{"": page("c1", nil, "a", "b")}}
	l, _ := newLoader(stub)
	ctx := context.Background()
	l.Start(ctx)
	l.Wait()

	stub.err = errors.New("502")
	l.Refresh(ctx)
	l.Wait()
	s := l.State()
	if s.Err == nil || len(s.Items) != 0 || !s.HasMore {
		t.Errorf("state = %+v", s)
	}
	if _, ok := l.Cursor(); ok {
		t.Error("cursor survived failed reset")
	}
}

func TestLoadMoreErrorKeepsItems(t *testing.T) {
	stub := &pageStub{pages: map[string]events.ListEventsResult{"": page("c1", nil, "a")}}
	l, _ := newLoader(stub)
	ctx := context.Background()
	l.Start(ctx)
	l.Wait()

	stub.err = errors.New("boom")
	l.LoadMore(ctx)
	l.Wait()
	s := l.State()
	if s.Err == nil || ids(s.Items) != "a" {
		t.Errorf("state = %+v", s)
	}
	if cur, _ := l.Cursor(); cur != "c1" {
		t.Errorf("cursor = %q", cur)
	}
}

func TestHasMoreInference(t *testing.T) {
	tests := []struct {
		name    string
		res     events.ListEventsResult
		hasMore bool
	}{
		{"explicit false with cursor", page("c1", boolPtr(false), "a"), false},
		{"explicit true", page("c1", boolPtr(true), "a"), true},
		{"inferred from cursor", page("c1", nil, "a"), true},
		{"inferred end", page("", nil, "a"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, _ := newLoader(&pageStub{pages: map[string]events.ListEventsResult{"": tt.res}})
			l.Start(context.Background())
			l.Wait()
			if got := l.State().HasMore; got != tt.hasMore {
				t.Errorf("has_more = %v, want %v", got, tt.hasMore)
			}
		})
	}
}

func TestNoDuplicatesAcrossOverlappingPages(t *testing.T) {
	stub := &pageStub{pages: map[string]events.ListEventsResult{
		"":   page("c1", nil, "a", "b", "a"),
		"c1": page("c2", nil, "a", "b", "c"),
		"c2": page("", nil, "c", "d", "b"),
	}}
	l, _ := newLoader(stub)
	ctx := context.Background()
	l.Start(ctx)
	l.Wait()
	for l.LoadMore(ctx) {
		l.Wait()
	}
	if got := ids(l.State().Items); got != "a,b,c,d" {
		t.Errorf("items = %s", got)
	}
}

func TestExhaustedIgnoresTriggers(t *testing.T) {
	stub := &pageStub{pages: map[string]events.ListEventsResult{"": page("", nil, "a")}}
	l, _ := newLoader(stub)
	ctx := context.Background()
	l.Start(ctx)
	l.Wait()

	if l.LoadMore(ctx) || l.Scroll(ctx, SourceScroll, nearBottom) || l.SentinelVisible(ctx) {
		t.Error("trigger fired after the last page")
	}
	if s := l.State(); !s.Exhausted() || s.Empty() {
		t.Errorf("state = %+v", s)
	}
}

func TestApplyLikeInLikedFilter(t *testing.T) {
	res := page("", nil, "a", "b")
	for i := range res.Events {
		res.Events[i].IsLiked = boolPtr(true)
	}
	l, _ := newLoader(&pageStub{pages: map[string]events.ListEventsResult{"": res}})
	ctx := context.Background()
	l.SetLikedOnly(ctx, true)
	l.Wait()

	l.ApplyLike("a", 0, boolPtr(false))
	if got := ids(l.State().Items); got != "b" {
		t.Errorf("items = %s", got)
	}

	l.SetLikedOnly(ctx, false)
	l.Wait()
	l.ApplyLike("a", 7, boolPtr(false))
	s := l.State()
	if ids(s.Items) != "a,b" || s.Items[0].LikeCount != 7 {
		t.Errorf("state = %+v", s.Items)
	}
}
