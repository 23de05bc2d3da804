package detail

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

func TestLoadReplacesState(t *testing.T) {
	api := &stubAPI{event: scenarioEvent()}
	e := loadedEngine(t, api)

	v := e.View()
	if !v.Loaded || v.Loading || v.Err != nil {
		t.Fatalf("unexpected flags %+v", v)
	}
	if v.Event.Title != "Final" || len(v.Event.Options) != 2 {
		t.Errorf("unexpected event %+v", v.Event)
	}
	if !v.CanBet() || v.CanSettle() {
		t.Error("OPEN event should allow betting only")
	}
	if v.TotalAmount() != 150 {
		t.Errorf("total = %d", v.TotalAmount())
	}
}

func TestLoadResetsSelection(t *testing.T) {
	api := &stubAPI{event: scenarioEvent()}
	e := loadedEngine(t, api)
	e.ToggleOption("o1")

	if err := e.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if sel := e.View().Selection; sel.Phase != NoSelection || sel.OptionID != "" {
		t.Errorf("selection not reset: %+v", sel)
	}
}

func TestLoadFailureLeavesInertPlaceholder(t *testing.T) {
	api := &stubAPI{event: scenarioEvent()}
	e := loadedEngine(t, api)

	api.getErr = errors.New("boom")
	if err := e.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	v := e.View()
	if v.Loaded || v.Err == nil {
		t.Errorf("flags = %+v", v)
	}
	if v.Event.Title != "" || len(v.Event.Options) != 0 || v.Event.EventID != "E1" {
		t.Errorf("stale data left visible: %+v", v.Event)
	}
	if v.CanBet() || v.CanSettle() {
		t.Error("placeholder must not enable actions")
	}
}

func TestNavigateClearsPreviousEvent(t *testing.T) {
	api := &stubAPI{event: scenarioEvent()}
	e := loadedEngine(t, api)

	var first *View
	e.Subscribe(func(v View) {
		if first == nil {
			first = &v
		}
	})
	if err := e.Navigate(context.Background(), "E2"); err != nil {
		t.Fatal(err)
	}
	if first == nil || first.Event.EventID != "E2" || first.Event.Title != "" || len(first.Event.Options) != 0 {
		t.Fatalf("first view after navigate = %+v", first)
	}
	if v := e.View(); v.Event.EventID != "E2" || !v.Loaded {
		t.Errorf("after load: %+v", v.Event)
	}
}

func TestScenarioOddsUpdate(t *testing.T) {
	e := loadedEngine(t, &stubAPI{event: scenarioEvent()})

	res := e.ApplyFeed(context.Background(), events.OddsMessage{
		Type:    events.OddsMessageUpdate,
		EventID: "E1",
		Options: []events.OddsEntry{{OptionID: "o1", Odds: odds(1.95)}},
	})
	if res.Refetched || len(res.Changed) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	v := e.View()
	o1, _ := v.Option("o1")
	o2, _ := v.Option("o2")
	if *o1.Odds != 1.95 || *o2.Odds != 2.1 {
		t.Errorf("odds o1=%v o2=%v", *o1.Odds, *o2.Odds)
	}
}

func TestOddsUpdateIdempotent(t *testing.T) {
	e := loadedEngine(t, &stubAPI{event: scenarioEvent()})
	notified := 0
	e.Subscribe(func(View) { notified++ })

	msg := events.OddsMessage{
		Type:    events.OddsMessageUpdate,
		EventID: "E1",
		Options: []events.OddsEntry{{OptionID: "o1", Odds: odds(1.95)}, {OptionID: "o2", Odds: odds(2.1)}},
	}
	e.ApplyFeed(context.Background(), msg)
	after := e.View()
	res := e.ApplyFeed(context.Background(), msg)

	if len(res.Changed) != 0 || res.Refetched {
		t.Errorf("second apply changed %v", res.Changed)
	}
	if notified != 1 {
		t.Errorf("notified %d times, want 1", notified)
	}
	if e.View().Version != after.Version {
		t.Error("version moved on a no-op update")
	}
}

func TestUnknownOptionTriggersOneRefetch(t *testing.T) {
	api := &stubAPI{event: scenarioEvent()}
	e := loadedEngine(t, api)
	before := api.calls()

	res := e.ApplyFeed(context.Background(), events.OddsMessage{
		Type:    events.OddsMessageUpdate,
		EventID: "E1",
		Options: []events.OddsEntry{{OptionID: "C", Odds: odds(3.3)}},
	})
	if !res.Refetched || res.RefetchErr != nil {
		t.Fatalf("expected refetch, got %+v", res)
	}
	if got := api.calls() - before; got != 1 {
		t.Errorf("refetches = %d, want 1", got)
	}
	v := e.View()
	o1, _ := v.Option("o1")
	o2, _ := v.Option("o2")
	if *o1.Odds != 1.8 || *o2.Odds != 2.1 {
		t.Errorf("known options touched: o1=%v o2=%v", *o1.Odds, *o2.Odds)
	}
}

func TestInitialSnapshotDoesNotRefetch(t *testing.T) {
	api := &stubAPI{event: scenarioEvent()}
	e := loadedEngine(t, api)
	before := api.calls()

	res := e.ApplyFeed(context.Background(), events.OddsMessage{
		Type:    events.OddsMessageInitial,
		EventID: "E1",
		Options: []events.OddsEntry{
			{OptionID: "o2", Name: "Away", Odds: odds(1.5)},
			{OptionID: "zz", Name: "Ghost", Odds: odds(9)},
		},
	})
	if res.Refetched || api.calls() != before {
		t.Error("initial snapshot must not refetch")
	}
	v := e.View()
	o1, _ := v.Option("o1")
	o2, _ := v.Option("o2")
	if *o1.Odds != 1.8 || *o2.Odds != 1.5 {
		t.Errorf("odds o1=%v o2=%v", *o1.Odds, *o2.Odds)
	}
}

func TestNonFiniteOddsSkipped(t *testing.T) {
	e := loadedEngine(t, &stubAPI{event: scenarioEvent()})
	nan, inf := math.NaN(), math.Inf(1)

	res := e.ApplyFeed(context.Background(), events.OddsMessage{
		Type: events.OddsMessageUpdate,
		Options: []events.OddsEntry{
			{OptionID: "o1", Odds: &nan},
			{OptionID: "o2", Odds: &inf},
		},
	})
	if len(res.Changed) != 0 || res.Refetched {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestForeignEventFrameIgnored(t *testing.T) {
	api := &stubAPI{event: scenarioEvent()}
	e := loadedEngine(t, api)
	before := api.calls()

	res := e.ApplyFeed(context.Background(), events.OddsMessage{
		Type:    events.OddsMessageUpdate,
		EventID: "E9",
		Options: []events.OddsEntry{{OptionID: "x", Odds: odds(2)}},
	})
	if res.Refetched || len(res.Changed) != 0 || api.calls() != before {
		t.Errorf("foreign frame had effect: %+v", res)
	}
}

func TestOddsSinkEmitsOnChange(t *testing.T) {
	e := New(&stubAPI{event: scenarioEvent()}, "E1", nil)
	var got []events.OddsChanged
	e.OnOddsChanged(func(c events.OddsChanged) { got = append(got, c) })

	e.Load(context.Background())
	msg := events.OddsMessage{Type: events.OddsMessageUpdate, Options: []events.OddsEntry{{OptionID: "o1", Odds: odds(1.7)}}}
	e.ApplyFeed(context.Background(), msg)
	e.ApplyFeed(context.Background(), msg)
	e.ToggleOption("o1")

	if len(got) != 2 {
		t.Fatalf("got %d odds changes, want 2", len(got))
	}
	if got[0].Source != SourceREST || got[1].Source != SourceFeed {
		t.Errorf("sources = %s, %s", got[0].Source, got[1].Source)
	}
	if got[1].Odds["o1"] != 1.7 || got[1].Version <= got[0].Version {
		t.Errorf("unexpected change %+v", got[1])
	}
}
