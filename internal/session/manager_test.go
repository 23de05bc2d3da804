package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type stubRefresher struct {
	calls   int
	payload events.AuthPayload
	err     error
}

func (s *stubRefresher) Refresh(context.Context) (events.AuthPayload, error) {
	s.calls++
	return s.payload, s.err
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newLoggedInManager(t *testing.T, r *stubRefresher) (*Manager, *Store, *fakeClock) {
	t.Helper()
	s := NewStore(nil, nil)
	s.SetLogin(context.Background(), events.AuthPayload{AccessToken: "old"}, "")
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(s, r, nil)
	m.Now = clock.Now
	m.lastActivity = clock.Now()
	return m, s, clock
}

func TestRefreshCooldown(t *testing.T) {
	r := &stubRefresher{payload: events.AuthPayload{AccessToken: "new"}}
	m, s, clock := newLoggedInManager(t, r)
	ctx := context.Background()

	m.Touch(ctx)
	m.Touch(ctx)
	clock.Advance(30 * time.Second)
	m.Touch(ctx)
	if r.calls != 1 {
		t.Fatalf("refresh calls = %d, want 1 within cooldown", r.calls)
	}
	if s.AccessToken() != "new" {
		t.Errorf("token = %q, want refreshed", s.AccessToken())
	}

	clock.Advance(31 * time.Second)
	m.Touch(ctx)
	if r.calls != 2 {
		t.Errorf("refresh calls = %d, want 2 after cooldown", r.calls)
	}
}

func TestNoRefreshWhenInactive(t *testing.T) {
	r := &stubRefresher{}
	m, _, clock := newLoggedInManager(t, r)

	clock.Advance(16 * time.Minute)
	if m.MaybeRefresh(context.Background()) {
		t.Fatal("refresh attempted for inactive user")
	}
	if r.calls != 0 {
		t.Errorf("refresh calls = %d", r.calls)
	}
}

func TestRefreshFailureExpiresSession(t *testing.T) {
	r := &stubRefresher{err: errors.New("401")}
	m, s, _ := newLoggedInManager(t, r)

	var got Change
	s.Subscribe(func(c Change) { got = c })

	m.Touch(context.Background())
	if s.LoggedIn() {
		t.Fatal("session should be cleared")
	}
	if got.Kind != ChangeExpired || got.Reason != ReasonTokenExpired {
		t.Errorf("unexpected change %+v", got)
	}
}

func TestInactivityLogout(t *testing.T) {
	m, s, clock := newLoggedInManager(t, &stubRefresher{})
	ctx := context.Background()

	clock.Advance(14 * time.Minute)
	if m.CheckInactivity(ctx) || !s.LoggedIn() {
		t.Fatal("logged out too early")
	}
	clock.Advance(2 * time.Minute)
	if !m.CheckInactivity(ctx) || s.LoggedIn() {
		t.Fatal("expected inactivity logout")
	}
}

func TestNoRefreshWhenLoggedOut(t *testing.T) {
	r := &stubRefresher{}
	m := NewManager(NewStore(nil, nil), r, nil)
	m.Touch(context.Background())
	if r.calls != 0 {
		t.Errorf("refresh calls = %d", r.calls)
	}
}

func TestZeroInactivityLimitKeepsSession(t *testing.T) {
	r := &stubRefresher{payload: events.AuthPayload{AccessToken: "new"}}
	m, s, clock := newLoggedInManager(t, r)
	m.InactivityLimit = 0
	ctx := context.Background()

	clock.Advance(2 * time.Hour)
	if m.CheckInactivity(ctx) || !s.LoggedIn() {
		t.Fatal("zero limit should disable inactivity logout")
	}
	if !m.MaybeRefresh(ctx) || r.calls != 1 {
		t.Errorf("refresh calls = %d, want 1 with no inactivity limit", r.calls)
	}
}

func TestSyncPicksUpExternalLogin(t *testing.T) {
	b := FileBackend{Dir: t.TempDir()}
	ctx := context.Background()
	cli, _ := Open(ctx, b, nil)
	watcher, _ := Open(ctx, b, nil)

	m := NewManager(watcher, &stubRefresher{}, nil)
	cli.SetLogin(ctx, events.AuthPayload{AccessToken: "tok"}, "")

	m.sync(ctx)
	if watcher.LoggedIn() {
		t.Fatal("sync ran with SyncBackend off")
	}
	m.SyncBackend = true
	m.sync(ctx)
	if watcher.AccessToken() != "tok" {
		t.Errorf("token = %q after sync", watcher.AccessToken())
	}
}
