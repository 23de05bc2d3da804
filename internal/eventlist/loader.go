// Package eventlist carrega a lista de eventos por cursor com filtro, dedupe,
// cancelamento de requisições antigas e heurísticas de auto-load por scroll.
package eventlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/api"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/metrics"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

var ErrTimeout = errors.New("event list request timed out")

type Lister interface {
	ListEvents(ctx context.Context, p api.ListEventsParams) (events.ListEventsResult, error)
}

// Filter: Status "" = todos
type Filter struct {
	Status    events.EventStatus
	LikedOnly bool
}

type Options struct {
	PageSize    int
	Timeout     time.Duration
	NearBottom  float64       // distância até o fim que conta como "perto"
	Cooldown    time.Duration // intervalo mínimo entre auto-loads
	BounceTicks int           // sinais repetidos exigidos sem cursor
	Logger      *zap.Logger
	Now         func() time.Time
}

func (o *Options) defaults() {
	if o.PageSize <= 0 {
		o.PageSize = 10
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.NearBottom <= 0 {
		o.NearBottom = 120
	}
	if o.Cooldown <= 0 {
		o.Cooldown = 800 * time.Millisecond
	}
	if o.BounceTicks <= 0 {
		o.BounceTicks = 2
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// State é o snapshot exibido pela lista
type State struct {
	Items   []events.Event
	Filter  Filter
	Loading bool
	HasMore bool
	Err     error
}

// Exhausted: o backend confirmou que não há mais páginas
func (s State) Exhausted() bool { return !s.Loading && !s.HasMore }

// Empty: nada carregado e nada em andamento
func (s State) Empty() bool { return !s.Loading && len(s.Items) == 0 }

type Loader struct {
	api  Lister
	opts Options
	log  *zap.Logger

	mu         sync.Mutex
	filter     Filter
	refreshKey int
	resetKey   string
	didInitial bool

	items   []events.Event
	cursor  *string // nil = ainda sem cursor
	hasMore bool
	loading bool
	err     error
	seq     uint64
	cancel  context.CancelFunc

	allowAuto     bool
	lastScrollTop float64
	bounce        int
	lastAuto      time.Time

	wg      sync.WaitGroup
	subMu   sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

func New(lister Lister, opts Options) *Loader {
	opts.defaults()
	return &Loader{
		api:     lister,
		opts:    opts,
		log:     logger.OrNop(opts.Logger),
		hasMore: true,
		subs:    make(map[int]func(State)),
	}
}

func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stateLocked()
}

func (l *Loader) stateLocked() State {
	return State{
		Items:   append([]events.Event(nil), l.items...),
		Filter:  l.filter,
		Loading: l.loading,
		HasMore: l.hasMore,
		Err:     l.err,
	}
}

// Cursor devolve o cursor atual e se ele já foi estabelecido
func (l *Loader) Cursor() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cursor == nil {
		return "", false
	}
	return *l.cursor, true
}

func (l *Loader) Subscribe(fn func(State)) (cancel func()) {
	l.subMu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	l.subMu.Unlock()
	return func() {
		l.subMu.Lock()
		delete(l.subs, id)
		l.subMu.Unlock()
	}
}

func (l *Loader) notify(s State) {
	l.subMu.Lock()
	fns := make([]func(State), 0, len(l.subs))
	for _, fn := range l.subs {
		fns = append(fns, fn)
	}
	l.subMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// Wait bloqueia até todas as buscas disparadas terminarem
func (l *Loader) Wait() { l.wg.Wait() }

// Start faz a primeira carga. Depois dela, só mudanças de chave resetam.
func (l *Loader) Start(ctx context.Context) { l.maybeReset(ctx) }

func (l *Loader) SetFilter(ctx context.Context, f Filter) {
	l.mu.Lock()
	l.filter = f
	l.mu.Unlock()
	l.maybeReset(ctx)
}

func (l *Loader) SetStatus(ctx context.Context, s events.EventStatus) {
	l.mu.Lock()
	f := l.filter
	l.mu.Unlock()
	f.Status = s
	l.SetFilter(ctx, f)
}

func (l *Loader) SetLikedOnly(ctx context.Context, v bool) {
	l.mu.Lock()
	f := l.filter
	l.mu.Unlock()
	f.LikedOnly = v
	l.SetFilter(ctx, f)
}

// Refresh força um reset (ex.: depois de criar um evento)
func (l *Loader) Refresh(ctx context.Context) {
	l.mu.Lock()
	l.refreshKey++
	l.mu.Unlock()
	l.maybeReset(ctx)
}

// maybeReset reinicia a lista se a chave filtro+curtidos+refresh mudou
func (l *Loader) maybeReset(ctx context.Context) bool {
	l.mu.Lock()
	key := fmt.Sprintf("%s::%t::%d", l.filter.Status, l.filter.LikedOnly, l.refreshKey)
	if l.didInitial && key == l.resetKey {
		l.mu.Unlock()
		return false
	}
	l.didInitial = true
	l.resetKey = key
	l.items = nil
	l.cursor = nil
	l.hasMore = true
	l.bounce = 0
	l.mu.Unlock()

	return l.fetchPage(ctx, true)
}

// LoadMore é o gatilho manual ("carregar mais")
func (l *Loader) LoadMore(ctx context.Context) bool { return l.fetchPage(ctx, false) }

// fetchPage dispara a busca em background. Devolve false se foi suprimida.
func (l *Loader) fetchPage(ctx context.Context, reset bool) bool {
	l.mu.Lock()
	if reset {
		l.loading = false
	}
	if l.loading || (!l.hasMore && !reset) || (!reset && l.cursor == nil) {
		l.mu.Unlock()
		return false
	}

	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	fctx, cancel := context.WithTimeout(ctx, l.opts.Timeout)
	l.cancel = cancel
	l.loading = true
	l.err = nil

	params := api.ListEventsParams{
		Status: l.filter.Status,
		Liked:  l.filter.LikedOnly,
		Limit:  l.opts.PageSize,
	}
	if !reset {
		params.Cursor = *l.cursor
	}
	s := l.stateLocked()
	l.wg.Add(1)
	l.mu.Unlock()

	l.notify(s)
	go l.run(fctx, cancel, seq, reset, params)
	return true
}

type pageResult struct {
	res events.ListEventsResult
	err error
}

func (l *Loader) run(ctx context.Context, cancel context.CancelFunc, seq uint64, reset bool, p api.ListEventsParams) {
	defer l.wg.Done()
	defer cancel()

	ch := make(chan pageResult, 1)
	go func() {
		res, err := l.api.ListEvents(ctx, p)
		ch <- pageResult{res, err}
	}()

	var out pageResult
	select {
	case out = <-ch:
	case <-ctx.Done():
		out.err = ctx.Err()
	}

	l.mu.Lock()
	if seq != l.seq {
		l.mu.Unlock()
		metrics.PageFetches.WithLabelValues("stale").Inc()
		l.log.Debug("discarding stale event page", zap.Uint64("seq", seq))
		return
	}
	l.loading = false
	l.cancel = nil

	if out.err != nil {
		if errors.Is(out.err, context.DeadlineExceeded) {
			out.err = ErrTimeout
			metrics.PageFetches.WithLabelValues("timeout").Inc()
		} else {
			metrics.PageFetches.WithLabelValues("error").Inc()
		}
		l.err = out.err
		if reset {
			l.items = nil
			l.cursor = nil
			l.hasMore = true
		}
		s := l.stateLocked()
		l.mu.Unlock()
		l.log.Warn("event page fetch failed", zap.Bool("reset", reset), zap.Error(out.err))
		l.notify(s)
		return
	}

	metrics.PageFetches.WithLabelValues("ok").Inc()
	if reset {
		l.items = dedupe(nil, out.res.Events)
	} else {
		l.items = dedupe(l.items, out.res.Events)
	}
	if out.res.NextCursor != "" {
		c := out.res.NextCursor
		l.cursor = &c
	} else {
		l.cursor = nil
	}
	if out.res.HasMore != nil {
		l.hasMore = *out.res.HasMore
	} else {
		l.hasMore = l.cursor != nil
	}
	s := l.stateLocked()
	l.mu.Unlock()
	l.notify(s)
}

// dedupe anexa next a prev mantendo a primeira ocorrência de cada event_id
func dedupe(prev, next []events.Event) []events.Event {
	seen := make(map[string]struct{}, len(prev)+len(next))
	out := make([]events.Event, 0, len(prev)+len(next))
	for _, list := range [][]events.Event{prev, next} {
		for _, ev := range list {
			if _, ok := seen[ev.EventID]; ok {
				continue
			}
			seen[ev.EventID] = struct{}{}
			out = append(out, ev)
		}
	}
	return out
}

// ApplyLike reflete um like/unlike feito num card. Com o filtro de curtidos,
// itens descurtidos saem da lista na hora.
func (l *Loader) ApplyLike(eventID string, likeCount int64, liked *bool) {
	l.mu.Lock()
	out := l.items[:0:0]
	for _, ev := range l.items {
		if ev.EventID == eventID {
			ev.LikeCount = likeCount
			if liked != nil {
				v := *liked
				ev.IsLiked = &v
			} else {
				ev.IsLiked = nil
			}
		}
		if l.filter.LikedOnly && (ev.IsLiked == nil || !*ev.IsLiked) {
			continue
		}
		out = append(out, ev)
	}
	l.items = out
	s := l.stateLocked()
	l.mu.Unlock()
	l.notify(s)
}
