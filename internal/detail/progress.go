package detail

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

const (
	LabelAwaitingSettlement = "awaiting settlement"
	LabelSettled            = "settled"
	LabelCancelled          = "cancelled"
	LabelUnknown            = "-"

	// a partir de 24h o rótulo vira data absoluta
	absoluteAfter = 24 * time.Hour
	dateLayout    = "2006-01-02 15:04"
)

// Progress é a exibição derivada do tempo para um instante
type Progress struct {
	Percent    float64 // 0..100
	UntilStart time.Duration
	Remaining  time.Duration
	Label      string
}

// ParseTime aceita RFC3339 com ou sem fração e sem fuso (tratado como UTC)
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ComputeProgress calcula fração decorrida e rótulos. start_at inválido vale end_at.
// CLOSED, SETTLED e CANCELLED substituem a contagem pelo rótulo do status.
func ComputeProgress(ev events.Event, now time.Time, loc *time.Location) Progress {
	if loc == nil {
		loc = time.Local
	}
	var p Progress
	end, ok := ParseTime(ev.EndAt)
	if ok {
		start, ok := ParseTime(ev.StartAt)
		if !ok {
			start = end
		}
		total := clampPositive(end.Sub(start))
		elapsed := min(clampPositive(now.Sub(start)), total)
		if total > 0 {
			p.Percent = math.Min(100, math.Max(0, float64(elapsed)/float64(total)*100))
		}
		p.UntilStart = clampPositive(start.Sub(now))
		p.Remaining = clampPositive(end.Sub(now))

		switch ev.Status {
		case events.StatusReady:
			if rel, abs := relativeLabel(p.UntilStart, start, loc); abs {
				p.Label = "opens " + rel
			} else {
				p.Label = rel + " until open"
			}
		case events.StatusOpen:
			if rel, abs := relativeLabel(p.Remaining, end, loc); abs {
				p.Label = "closes " + rel
			} else {
				p.Label = rel + " left"
			}
		}
	}

	switch ev.Status {
	case events.StatusClosed:
		p.Label = LabelAwaitingSettlement
	case events.StatusSettled:
		p.Label = LabelSettled
	case events.StatusCancelled:
		p.Label = LabelCancelled
	}
	if p.Label == "" {
		p.Label = LabelUnknown
	}
	return p
}

func clampPositive(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// relativeLabel arredonda para cima em minutos ("7m", "2h 5m"); a partir de 24h
// devolve a data formatada e abs=true.
func relativeLabel(d time.Duration, at time.Time, loc *time.Location) (string, bool) {
	minutes := int64(math.Ceil(d.Minutes()))
	if time.Duration(minutes)*time.Minute >= absoluteAfter {
		return at.In(loc).Format(dateLayout), true
	}
	h, m := minutes/60, minutes%60
	if h <= 0 {
		return fmt.Sprintf("%dm", m), false
	}
	return fmt.Sprintf("%dh %dm", h, m), false
}

// RunClock chama fn com o progresso atual a cada Tick (1s se zero) até ctx acabar
func (e *Engine) RunClock(ctx context.Context, loc *time.Location, fn func(Progress)) {
	tick := e.Tick
	if tick <= 0 {
		tick = time.Second
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	fn(e.Progress(loc))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(e.Progress(loc))
		}
	}
}

// LabelChanges embrulha fn para só repassar a primeira leitura e trocas de rótulo
func LabelChanges(fn func(Progress)) func(Progress) {
	var (
		last string
		seen bool
	)
	return func(p Progress) {
		if seen && p.Label == last {
			return
		}
		seen, last = true, p.Label
		fn(p)
	}
}

// Progress calcula o progresso do estado atual com o relógio do engine
func (e *Engine) Progress(loc *time.Location) Progress {
	e.mu.Lock()
	ev := e.ev
	e.mu.Unlock()
	return ComputeProgress(ev, e.Now(), loc)
}
