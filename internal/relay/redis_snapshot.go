package relay

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

// ChannelOddsBroadcast recebe cada snapshot publicado, para consumidores sem Kafka
const ChannelOddsBroadcast = "toto_odds_broadcast"

// RedisSnapshot guarda o último snapshot de cada evento com TTL e o
// retransmite via Pub/Sub.
type RedisSnapshot struct {
	Client  *redis.Client
	TTL     time.Duration
	Channel string // vazio = só grava a chave
}

func NewRedisSnapshot(c *redis.Client, ttl time.Duration) *RedisSnapshot {
	return &RedisSnapshot{Client: c, TTL: ttl, Channel: ChannelOddsBroadcast}
}

// snapshotKey gera a chave Redis das odds atuais de um evento
func snapshotKey(eventID string) string { return "toto:odds:current:" + eventID }

func (r *RedisSnapshot) Publish(ctx context.Context, ev events.OddsChanged) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pipe := r.Client.TxPipeline()
	pipe.Set(ctx, snapshotKey(ev.EventID), b, r.TTL)
	if r.Channel != "" {
		pipe.Publish(ctx, r.Channel, b)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// Current lê o último snapshot; ok=false quando expirou ou nunca existiu
func (r *RedisSnapshot) Current(ctx context.Context, eventID string) (events.OddsChanged, bool, error) {
	var out events.OddsChanged
	b, err := r.Client.Get(ctx, snapshotKey(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return out, false, nil
	}
	if err != nil {
		return out, false, err
	}
	return out, true, json.Unmarshal(b, &out)
}

// Multi publica em todos e junta os erros
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, ev events.OddsChanged) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
