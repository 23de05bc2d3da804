package validate

import (
	"strings"
	"testing"
	"time"
)

func TestCommentBoundaries(t *testing.T) {
	if err := Comment("   "); !IsValidation(err) {
		t.Fatalf("whitespace-only err=%v want validation error", err)
	}
	if err := Comment(""); !IsValidation(err) {
		t.Fatalf("empty err=%v want validation error", err)
	}
	if err := Comment(strings.Repeat("a", 500)); err != nil {
		t.Fatalf("500 chars err=%v want nil", err)
	}
	if err := Comment(strings.Repeat("a", 501)); !IsValidation(err) {
		t.Fatalf("501 chars err=%v want validation error", err)
	}
	// code points, not bytes
	if err := Comment(strings.Repeat("가", 500)); err != nil {
		t.Fatalf("500 hangul err=%v want nil", err)
	}
}

func TestBet(t *testing.T) {
	if err := Bet("", 10); !IsValidation(err) {
		t.Fatalf("no option err=%v", err)
	}
	if err := Bet("o1", 0); !IsValidation(err) {
		t.Fatalf("zero amount err=%v", err)
	}
	if err := Bet("o1", 1); err != nil {
		t.Fatalf("valid bet err=%v", err)
	}
}

func TestPointInput(t *testing.T) {
	if got := NormalizePointInput("1,000 pts"); got != "1000" {
		t.Fatalf("normalize=%q want 1000", got)
	}
	if got := NormalizePointInput("123456789012345"); got != "1234567890" {
		t.Fatalf("normalize=%q want 10 digits", got)
	}
	if got := ParsePointAmount("2,500"); got != 2500 {
		t.Fatalf("parse=%d want 2500", got)
	}
	if got := ParsePointAmount("abc"); got != 0 {
		t.Fatalf("parse=%d want 0", got)
	}
}

func TestNickname(t *testing.T) {
	got, err := Nickname("  toto  ")
	if err != nil || got != "toto" {
		t.Fatalf("got=%q err=%v", got, err)
	}
	if _, err := Nickname(" a "); !IsValidation(err) {
		t.Fatalf("short nickname err=%v", err)
	}
	if _, err := Nickname(strings.Repeat("n", 21)); !IsValidation(err) {
		t.Fatalf("long nickname err=%v", err)
	}
}

func TestPasswordChange(t *testing.T) {
	if err := PasswordChange(" ", "newpassword"); !IsValidation(err) {
		t.Fatalf("blank current err=%v", err)
	}
	if err := PasswordChange("oldpassword", "short"); !IsValidation(err) {
		t.Fatalf("short new err=%v", err)
	}
	err := PasswordChange("samepassword", "samepassword")
	ve, ok := err.(*Error)
	if !ok || !strings.Contains(ve.Message, "differ") {
		t.Fatalf("same password err=%v", err)
	}
	if err := PasswordChange("oldpassword", "newpassword"); err != nil {
		t.Fatalf("valid change err=%v", err)
	}
}

func TestEventDraft(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d := EventDraft{
		Title:      "공대 vs 자연대 축구",
		StartAt:    start,
		EndAt:      start.Add(2 * time.Hour),
		Options:    []DraftOption{{Name: "공대", ImageIndex: -1}, {Name: "자연대", ImageIndex: 0}},
		ImageCount: 1,
	}
	if err := Event(d); err != nil {
		t.Fatalf("valid draft err=%v", err)
	}

	bad := d
	bad.EndAt = start.Add(-time.Minute)
	if err := Event(bad); !IsValidation(err) {
		t.Fatalf("end before start err=%v", err)
	}

	bad = d
	bad.Options = []DraftOption{{Name: "only", ImageIndex: -1}}
	if err := Event(bad); !IsValidation(err) {
		t.Fatalf("single option err=%v", err)
	}

	bad = d
	bad.ImageCount = 0
	if err := Event(bad); !IsValidation(err) {
		t.Fatalf("image index out of range err=%v", err)
	}
}
