package detail

import (
	"context"
	"errors"
	"testing"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name   string
		path   []Target
		hit    Hit
		option string
	}{
		{"empty area", []Target{{Role: RoleNone}}, HitOutside, ""},
		{"nothing", nil, HitOutside, ""},
		{"card body", []Target{{Role: RoleNone}, {Role: RoleOptionCard, OptionID: "o1"}}, HitOptionCard, "o1"},
		{"button inside card", []Target{{Role: RoleButton}, {Role: RoleOptionCard, OptionID: "o1"}}, HitInteractive, ""},
		{"input", []Target{{Role: RoleInput}}, HitInteractive, ""},
		{"label wrapper", []Target{{Role: RoleNone}, {Role: RoleLabel}}, HitInteractive, ""},
		{"radio", []Target{{Role: RoleRadio}}, HitInteractive, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, opt := Route(tt.path)
			if hit != tt.hit || opt != tt.option {
				t.Errorf("Route = (%v, %q), want (%v, %q)", hit, opt, tt.hit, tt.option)
			}
		})
	}
}

func TestClickAwayDeselect(t *testing.T) {
	e := loadedEngine(t, &stubAPI{event: scenarioEvent()})

	if err := e.ToggleOption("o1"); err != nil {
		t.Fatal(err)
	}
	e.PointerDown([]Target{{Role: RoleButton}})
	if e.View().Selection.Phase != OptionSelected {
		t.Fatal("interactive control cleared the selection")
	}
	e.PointerDown([]Target{{Role: RoleOptionCard, OptionID: "o2"}})
	if e.View().Selection.OptionID != "o1" {
		t.Fatal("pointer-down on a card cleared the selection")
	}
	e.PointerDown([]Target{{Role: RoleNone}})
	if sel := e.View().Selection; sel.Phase != NoSelection || sel.OptionID != "" {
		t.Fatalf("selection not cleared: %+v", sel)
	}
}

func TestToggleOption(t *testing.T) {
	e := loadedEngine(t, &stubAPI{event: scenarioEvent()})

	e.ToggleOption("o1")
	e.ToggleOption("o2")
	if sel := e.View().Selection; sel.OptionID != "o2" {
		t.Errorf("selected %q, want o2", sel.OptionID)
	}
	e.ToggleOption("o2")
	if sel := e.View().Selection; sel.Phase != NoSelection {
		t.Errorf("second click should deselect, got %+v", sel)
	}
	if err := e.ToggleOption("ghost"); !errors.Is(err, ErrUnknownOption) {
		t.Errorf("unknown option: %v", err)
	}
}

func TestBetFlow(t *testing.T) {
	api := &stubAPI{event: scenarioEvent()}
	e := loadedEngine(t, api)
	ctx := context.Background()

	if err := e.OpenBetForm(); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("open without selection: %v", err)
	}
	e.ToggleOption("o1")
	if err := e.OpenBetForm(); err != nil {
		t.Fatal(err)
	}

	if err := e.SubmitBet(ctx, "abc"); err == nil {
		t.Fatal("expected validation error")
	}
	sel := e.View().Selection
	if sel.Phase != BetFormOpen || sel.BetError == "" {
		t.Fatalf("after invalid submit: %+v", sel)
	}

	api.betErr = errors.New("insufficient points")
	if err := e.SubmitBet(ctx, "1,000"); err == nil {
		t.Fatal("expected API error")
	}
	if sel := e.View().Selection; sel.Phase != BetFormOpen || sel.BetError != "insufficient points" {
		t.Fatalf("after failed submit: %+v", sel)
	}

	api.betErr = nil
	if err := e.SubmitBet(ctx, "1,000"); err != nil {
		t.Fatal(err)
	}
	if sel := e.View().Selection; sel.Phase != NoSelection {
		t.Errorf("after success: %+v", sel)
	}
	if len(api.bets) != 1 || api.bets[0].BetAmount != 1000 || api.bets[0].OptionID != "o1" {
		t.Errorf("bets = %+v", api.bets)
	}
}

func TestBetFormRequiresOpen(t *testing.T) {
	ev := scenarioEvent()
	ev.Status = "READY"
	e := loadedEngine(t, &stubAPI{event: ev})

	e.ToggleOption("o1")
	if err := e.OpenBetForm(); !errors.Is(err, ErrBettingClosed) {
		t.Errorf("err = %v", err)
	}
}

func TestCancelBetForm(t *testing.T) {
	e := loadedEngine(t, &stubAPI{event: scenarioEvent()})
	e.ToggleOption("o1")
	e.OpenBetForm()
	e.CancelBetForm()
	if sel := e.View().Selection; sel.Phase != OptionSelected || sel.OptionID != "o1" {
		t.Errorf("after cancel: %+v", sel)
	}
}
