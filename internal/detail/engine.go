// Package detail mantém o estado autoritativo de um evento aberto e
// reconcilia snapshots REST, deltas do feed de odds e mutações otimistas.
package detail

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

var (
	ErrBettingClosed        = errors.New("betting is only available while the event is OPEN")
	ErrSettlementNotAllowed = errors.New("settlement is only available while the event is CLOSED")
	ErrNoSelection          = errors.New("select an option first")
	ErrNoWinners            = errors.New("select at least one winning option")
	ErrUnknownOption        = errors.New("option does not belong to this event")
	ErrActionPending        = errors.New("another request is still in progress")
)

// API é o subconjunto do gateway usado pelo engine
type API interface {
	GetEvent(ctx context.Context, eventID string) (events.Event, error)
	LikeEvent(ctx context.Context, eventID string) error
	UnlikeEvent(ctx context.Context, eventID string) error
	CreateBet(ctx context.Context, eventID string, req events.CreateBetRequest) (events.CreateBetResponse, error)
	UpdateEventStatus(ctx context.Context, eventID string, status events.EventStatus) (events.Event, error)
	SettleEvent(ctx context.Context, eventID string, winners []string) (events.Event, error)
}

// View é um snapshot imutável do estado do engine
type View struct {
	Event       events.Event
	Loaded      bool
	Loading     bool
	Err         error
	Selection   Selection
	LikePending bool
	Version     uint64
}

func (v View) CanBet() bool    { return v.Event.Status == events.StatusOpen }
func (v View) CanSettle() bool { return v.Event.Status == events.StatusClosed }

// Option devolve a opção pelo id
func (v View) Option(id string) (events.Option, bool) {
	for _, o := range v.Event.Options {
		if o.OptionID == id {
			return o, true
		}
	}
	return events.Option{}, false
}

// TotalAmount soma option_total_amount de todas as opções
func (v View) TotalAmount() int64 {
	var sum int64
	for _, o := range v.Event.Options {
		sum += o.OptionTotalAmount
	}
	return sum
}

type Engine struct {
	api API
	log *zap.Logger

	// Now é o relógio usado pelo progresso; trocável em testes.
	Now func() time.Time
	// Tick é o intervalo de RunClock
	Tick time.Duration

	mu          sync.Mutex
	eventID     string
	ev          events.Event
	loaded      bool
	loading     bool
	loadErr     error
	loadSeq     uint64
	version     uint64
	likeVer     uint64
	likePending bool
	sel         Selection

	// Sequência de GETs autoritativos, numerados quando saem
	fetchSeq     uint64
	appliedFetch uint64 // último GET aplicado por inteiro
	likeFetch    uint64 // GET mais novo que escreveu like_count/is_liked

	subMu    sync.Mutex
	subs     map[int]func(View)
	nextSub  int
	oddsSink func(events.OddsChanged)
	lastOdds map[string]float64
	lastStat events.EventStatus
}

func New(api API, eventID string, log *zap.Logger) *Engine {
	return &Engine{
		api:     api,
		log:     logger.OrNop(log),
		Now:     time.Now,
		Tick:    time.Second,
		eventID: eventID,
		ev:      events.Event{EventID: eventID},
		subs:    make(map[int]func(View)),
	}
}

func (e *Engine) EventID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eventID
}

func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *Engine) viewLocked() View {
	return View{
		Event:       cloneEvent(e.ev),
		Loaded:      e.loaded,
		Loading:     e.loading,
		Err:         e.loadErr,
		Selection:   e.sel,
		LikePending: e.likePending,
		Version:     e.version,
	}
}

// Subscribe recebe um View a cada mudança aplicada
func (e *Engine) Subscribe(fn func(View)) (cancel func()) {
	e.subMu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.subMu.Unlock()
	return func() {
		e.subMu.Lock()
		delete(e.subs, id)
		e.subMu.Unlock()
	}
}

// OnOddsChanged registra quem recebe odds reconciliadas (ex.: relay Kafka)
func (e *Engine) OnOddsChanged(fn func(events.OddsChanged)) {
	e.subMu.Lock()
	e.oddsSink = fn
	e.subMu.Unlock()
}

// commit incrementa a versão e devolve o snapshot para notify. Chamar com mu.
func (e *Engine) commit() View {
	e.version++
	return e.viewLocked()
}

func (e *Engine) notify(v View, source string) {
	e.subMu.Lock()
	fns := make([]func(View), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	sink := e.oddsSink
	var changed *events.OddsChanged
	if sink != nil && v.Loaded {
		odds := oddsMap(v.Event)
		if v.Event.Status != e.lastStat || !sameOdds(odds, e.lastOdds) {
			e.lastOdds = odds
			e.lastStat = v.Event.Status
			changed = &events.OddsChanged{
				EventID:    v.Event.EventID,
				Status:     v.Event.Status,
				Odds:       odds,
				Source:     source,
				Version:    v.Version,
				ObservedAt: e.Now().UTC(),
			}
		}
	}
	e.subMu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
	if changed != nil {
		sink(*changed)
	}
}

// Navigate troca o evento exibido: limpa tudo imediatamente e carrega o novo.
func (e *Engine) Navigate(ctx context.Context, eventID string) error {
	e.mu.Lock()
	e.eventID = eventID
	e.ev = events.Event{EventID: eventID}
	e.loaded = false
	e.loadErr = nil
	e.likePending = false
	e.likeVer++
	e.sel = Selection{}
	v := e.commit()
	e.mu.Unlock()
	e.notify(v, SourceREST)
	return e.Load(ctx)
}

// Load busca o evento e substitui o estado inteiro, zerando seleção e erros.
// Em falha deixa um placeholder sem status (nenhuma ação habilitada).
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	e.loadSeq++
	seq := e.loadSeq
	id := e.eventID
	fetch := e.beginFetch()
	e.loading = true
	v := e.commit()
	e.mu.Unlock()
	e.notify(v, SourceREST)

	ev, err := e.api.GetEvent(ctx, id)

	e.mu.Lock()
	if seq != e.loadSeq || id != e.eventID {
		e.mu.Unlock()
		return err
	}
	e.loading = false
	e.sel = Selection{}
	e.likePending = false
	e.likeVer++
	if err != nil {
		e.ev = events.Event{EventID: id}
		e.loaded = false
		e.loadErr = err
		v = e.commit()
		e.mu.Unlock()
		e.log.Warn("event load failed", zap.String("event_id", id), zap.Error(err))
		e.notify(v, SourceREST)
		return err
	}
	e.ev = normalize(ev, id)
	e.loaded = true
	e.loadErr = nil
	e.appliedFetch, e.likeFetch = fetch, fetch
	v = e.commit()
	e.mu.Unlock()
	e.notify(v, SourceREST)
	return nil
}

// Refresh relê o evento e sobrescreve os campos do servidor mantendo a seleção
// (que é descartada se a opção sumiu).
func (e *Engine) Refresh(ctx context.Context) error {
	return e.refresh(ctx, SourceREST)
}

func (e *Engine) refresh(ctx context.Context, source string) error {
	e.mu.Lock()
	id, seq, fetch := e.eventID, e.loadSeq, e.beginFetch()
	e.mu.Unlock()

	ev, err := e.api.GetEvent(ctx, id)
	if err != nil {
		e.log.Warn("event refresh failed", zap.String("event_id", id), zap.Error(err))
		return err
	}
	e.replace(ev, id, seq, fetch, source)
	return nil
}

// beginFetch numera um GET autoritativo no momento em que ele sai. Chamar com mu.
func (e *Engine) beginFetch() uint64 {
	e.fetchSeq++
	return e.fetchSeq
}

// replace aplica um evento autoritativo se ainda for o mesmo evento/carga e se
// nenhum GET mais novo já foi aplicado. Os campos de like só são sobrescritos
// quando este GET saiu depois da última confirmação de like.
func (e *Engine) replace(ev events.Event, id string, seq, fetch uint64, source string) {
	e.mu.Lock()
	if id != e.eventID || seq != e.loadSeq || fetch < e.appliedFetch {
		e.mu.Unlock()
		return
	}
	like := likeState{count: e.ev.LikeCount, liked: cloneBool(e.ev.IsLiked)}
	e.ev = normalize(ev, id)
	if fetch < e.likeFetch {
		e.setLike(like)
	} else {
		e.likeFetch = fetch
	}
	e.appliedFetch = fetch
	e.loaded = true
	e.loadErr = nil
	if e.sel.OptionID != "" && !hasOption(e.ev, e.sel.OptionID) {
		e.sel = Selection{}
	}
	v := e.commit()
	e.mu.Unlock()
	e.notify(v, source)
}

func normalize(ev events.Event, id string) events.Event {
	if ev.EventID == "" {
		ev.EventID = id
	}
	if ev.Options == nil {
		ev.Options = []events.Option{}
	}
	if ev.Images == nil {
		ev.Images = []events.Image{}
	}
	return cloneEvent(ev)
}

func hasOption(ev events.Event, id string) bool {
	for _, o := range ev.Options {
		if o.OptionID == id {
			return true
		}
	}
	return false
}

func cloneEvent(ev events.Event) events.Event {
	out := ev
	out.IsLiked = cloneBool(ev.IsLiked)
	out.IsEligible = cloneBool(ev.IsEligible)
	if ev.TotalParticipants != nil {
		n := *ev.TotalParticipants
		out.TotalParticipants = &n
	}
	if ev.Options != nil {
		out.Options = make([]events.Option, len(ev.Options))
		for i, o := range ev.Options {
			if o.Odds != nil {
				f := *o.Odds
				o.Odds = &f
			}
			o.IsWinner = cloneBool(o.IsWinner)
			out.Options[i] = o
		}
	}
	if ev.Images != nil {
		out.Images = append([]events.Image(nil), ev.Images...)
	}
	return out
}

func cloneBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

func oddsMap(ev events.Event) map[string]float64 {
	out := make(map[string]float64, len(ev.Options))
	for _, o := range ev.Options {
		if o.Odds != nil {
			out[o.OptionID] = *o.Odds
		}
	}
	return out
}

func sameOdds(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

const (
	SourceREST   = "rest"
	SourceFeed   = "feed"
	SourceAction = "action"
)
