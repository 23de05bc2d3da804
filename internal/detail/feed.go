package detail

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/metrics"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

// FeedResult descreve o efeito de uma mensagem do feed
type FeedResult struct {
	Changed    []string // option ids cujas odds mudaram
	Refetched  bool
	RefetchErr error
}

// ApplyFeed aplica um frame de odds. "initial" substitui as odds das opções presentes;
// "odds_update" pula valores iguais ou não finitos. Um update que não casa com
// nenhuma opção conhecida dispara um refetch completo.
func (e *Engine) ApplyFeed(ctx context.Context, msg events.OddsMessage) FeedResult {
	e.mu.Lock()
	if msg.EventID != "" && msg.EventID != e.eventID {
		e.mu.Unlock()
		return FeedResult{}
	}

	index := make(map[string]int, len(e.ev.Options))
	for i, o := range e.ev.Options {
		index[o.OptionID] = i
	}

	var res FeedResult
	matched := 0
	for _, entry := range msg.Options {
		i, ok := index[entry.OptionID]
		if !ok {
			continue
		}
		matched++
		opt := &e.ev.Options[i]

		if msg.Type == events.OddsMessageInitial && entry.Odds == nil {
			if opt.Odds != nil {
				opt.Odds = nil
				res.Changed = append(res.Changed, entry.OptionID)
			}
			continue
		}
		if entry.Odds == nil || math.IsNaN(*entry.Odds) || math.IsInf(*entry.Odds, 0) {
			continue
		}
		if opt.Odds != nil && *opt.Odds == *entry.Odds {
			continue
		}
		f := *entry.Odds
		opt.Odds = &f
		res.Changed = append(res.Changed, entry.OptionID)
	}

	needRefetch := msg.Type == events.OddsMessageUpdate && len(msg.Options) > 0 && matched == 0
	if len(res.Changed) == 0 {
		e.mu.Unlock()
	} else {
		v := e.commit()
		e.mu.Unlock()
		e.notify(v, SourceFeed)
	}

	if needRefetch {
		metrics.FallbackRefetches.Inc()
		e.log.Info("odds update matched no known option, refetching event",
			zap.String("event_id", msg.EventID), zap.Int("options", len(msg.Options)))
		res.Refetched = true
		res.RefetchErr = e.refresh(ctx, SourceFeed)
	}
	return res
}
