package detail

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/metrics"
	"github.com/wafflestudio/23-5-team7-web/internal/validate"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type likeState struct {
	count int64
	liked *bool
}

// ToggleLike aplica o like/unlike localmente, chama a API e confirma com um refetch.
// O rollback só acontece se nenhum GET autoritativo escreveu o like nesse meio
// tempo; a confirmação vale se o seu GET saiu depois do último aplicado.
func (e *Engine) ToggleLike(ctx context.Context) error {
	e.mu.Lock()
	if e.likePending {
		e.mu.Unlock()
		return ErrActionPending
	}
	id := e.eventID
	prev := likeState{count: e.ev.LikeCount, liked: cloneBool(e.ev.IsLiked)}
	wasLiked := prev.liked != nil && *prev.liked

	next := likeState{count: prev.count + 1, liked: boolPtr(true)}
	if wasLiked {
		next = likeState{count: max(0, prev.count-1), liked: boolPtr(false)}
	}
	e.setLike(next)
	e.likePending = true
	e.likeVer++
	ver := e.likeVer
	base := e.likeFetch
	v := e.commit()
	e.mu.Unlock()
	e.notify(v, SourceAction)

	var err error
	if wasLiked {
		err = e.api.UnlikeEvent(ctx, id)
	} else {
		err = e.api.LikeEvent(ctx, id)
	}

	if err != nil {
		e.mu.Lock()
		e.likePending = false
		if ver == e.likeVer && e.likeFetch == base {
			e.setLike(prev)
			metrics.OptimisticRollbacks.WithLabelValues("like").Inc()
		}
		v = e.commit()
		e.mu.Unlock()
		e.notify(v, SourceAction)
		return err
	}

	e.mu.Lock()
	fetch := e.beginFetch()
	e.mu.Unlock()

	ev, ferr := e.api.GetEvent(ctx, id)

	e.mu.Lock()
	e.likePending = false
	if ferr == nil && ver == e.likeVer && fetch > e.likeFetch {
		confirmed := next
		confirmed.count = ev.LikeCount
		if ev.IsLiked != nil {
			confirmed.liked = cloneBool(ev.IsLiked)
		}
		e.setLike(confirmed)
		e.likeFetch = fetch
	}
	v = e.commit()
	e.mu.Unlock()
	if ferr != nil {
		e.log.Debug("like confirmation refetch failed, keeping optimistic state",
			zap.String("event_id", id), zap.Error(ferr))
	}
	e.notify(v, SourceAction)
	return nil
}

func (e *Engine) setLike(s likeState) {
	e.ev.LikeCount = s.count
	e.ev.IsLiked = cloneBool(s.liked)
}

func boolPtr(b bool) *bool { return &b }

// PlaceBet registra uma aposta sem otimismo: sucesso dispara um refetch completo,
// já que totais e participantes nunca são calculados no cliente.
func (e *Engine) PlaceBet(ctx context.Context, optionID string, amount int64) (events.CreateBetResponse, error) {
	e.mu.Lock()
	id := e.eventID
	status := e.ev.Status
	known := hasOption(e.ev, optionID)
	e.mu.Unlock()

	if status != events.StatusOpen {
		return events.CreateBetResponse{}, ErrBettingClosed
	}
	if err := validate.Bet(optionID, amount); err != nil {
		return events.CreateBetResponse{}, err
	}
	if !known {
		return events.CreateBetResponse{}, ErrUnknownOption
	}

	res, err := e.api.CreateBet(ctx, id, events.CreateBetRequest{OptionID: optionID, BetAmount: amount})
	if err != nil {
		return events.CreateBetResponse{}, err
	}
	if rerr := e.refresh(ctx, SourceAction); rerr != nil {
		e.log.Warn("refetch after bet failed", zap.String("event_id", id), zap.Error(rerr))
	}
	return res, nil
}

// ChangeStatus pede a transição ao backend e substitui o estado pelo evento relido
func (e *Engine) ChangeStatus(ctx context.Context, status events.EventStatus) error {
	if !status.Valid() {
		return &validate.Error{Field: "status", Message: fmt.Sprintf("unknown status %q", status)}
	}
	e.mu.Lock()
	id, seq, fetch := e.eventID, e.loadSeq, e.beginFetch()
	e.mu.Unlock()

	ev, err := e.api.UpdateEventStatus(ctx, id, status)
	if err != nil {
		return err
	}
	e.replace(ev, id, seq, fetch, SourceAction)
	return nil
}

// Settle marca as opções vencedoras. Só em CLOSED e com pelo menos um vencedor conhecido.
func (e *Engine) Settle(ctx context.Context, winners []string) error {
	e.mu.Lock()
	id, seq := e.eventID, e.loadSeq
	status := e.ev.Status
	var unknown string
	for _, w := range winners {
		if !hasOption(e.ev, w) {
			unknown = w
			break
		}
	}
	e.mu.Unlock()

	if status != events.StatusClosed {
		return ErrSettlementNotAllowed
	}
	if len(winners) == 0 {
		return ErrNoWinners
	}
	if unknown != "" {
		return fmt.Errorf("%w: %s", ErrUnknownOption, unknown)
	}

	e.mu.Lock()
	fetch := e.beginFetch()
	e.mu.Unlock()

	ev, err := e.api.SettleEvent(ctx, id, winners)
	if err != nil {
		return err
	}
	e.replace(ev, id, seq, fetch, SourceAction)
	return nil
}
