// Package relay repassa as odds reconciliadas por um watcher para o Kafka sem
// bloquear o motor de detalhe.
package relay

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/metrics"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

const DefaultBuffer = 64

type Publisher interface {
	Publish(ctx context.Context, ev events.OddsChanged) error
}

// Relay enfileira mudanças e publica numa goroutine própria. Fila cheia
// descarta a mensagem nova; a próxima mudança traz o snapshot completo.
type Relay struct {
	pub     Publisher
	queue   chan events.OddsChanged
	timeout time.Duration
	log     *zap.Logger
}

func New(pub Publisher, buffer int, log *zap.Logger) *Relay {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Relay{
		pub:     pub,
		queue:   make(chan events.OddsChanged, buffer),
		timeout: 10 * time.Second,
		log:     logger.OrNop(log),
	}
}

// Enqueue nunca bloqueia; serve direto como detail.Engine.OnOddsChanged
func (r *Relay) Enqueue(ev events.OddsChanged) {
	select {
	case r.queue <- ev:
	default:
		metrics.RelayPublishes.WithLabelValues("dropped").Inc()
		r.log.Warn("relay queue full, dropping odds change",
			zap.String("event_id", ev.EventID), zap.Uint64("version", ev.Version))
	}
}

// Run publica até ctx ser cancelado
func (r *Relay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-r.queue:
			pctx, cancel := context.WithTimeout(ctx, r.timeout)
			err := r.pub.Publish(pctx, ev)
			cancel()
			if err != nil {
				metrics.RelayPublishes.WithLabelValues("error").Inc()
				continue
			}
			metrics.RelayPublishes.WithLabelValues("ok").Inc()
		}
	}
}
