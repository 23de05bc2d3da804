// Package feed mantém uma conexão WebSocket de odds por evento, com
// reconexão por backoff exponencial e filtragem de frames.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/metrics"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

// CloseExpected é o código usado quando a conexão é encerrada de propósito; não reconecta.
const CloseExpected = websocket.CloseNormalClosure

// URLFor monta a URL do feed. wsBase tem precedência; senão deriva de apiBase (http→ws, https→wss).
func URLFor(apiBase, wsBase, eventID string) (string, error) {
	path := "/api/events/ws/" + url.PathEscape(eventID)
	if wsBase = strings.TrimSpace(wsBase); wsBase != "" {
		return strings.TrimRight(wsBase, "/") + path, nil
	}
	u, err := url.Parse(strings.TrimSpace(apiBase))
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("cannot derive feed url from %q", apiBase)
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return scheme + "://" + u.Host + path, nil
}

type Options struct {
	URL       string
	EventID   string
	Policy    Policy
	Dialer    *websocket.Dialer
	Logger    *zap.Logger
	OnMessage func(events.OddsMessage)
	OnState   func(Status)
}

// Client assina o feed de exatamente um evento
type Client struct {
	opts Options
	log  *zap.Logger

	mu     sync.Mutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
}

func New(opts Options) *Client {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Policy.Base <= 0 {
		opts.Policy.Base = time.Second
	}
	if opts.Policy.Max < opts.Policy.Base {
		opts.Policy.Max = 30 * opts.Policy.Base
	}
	return &Client{
		opts: opts,
		log:  logger.OrNop(opts.Logger).With(zap.String("event_id", opts.EventID)),
	}
}

func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Start abre a conexão em background. Chamadas repetidas são ignoradas.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.mu.Unlock()

	go c.run(ctx)
}

// Close encerra com CloseExpected, cancela qualquer reconexão pendente e espera a goroutine.
func (c *Client) Close() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Done fecha quando o loop termina (Close, ctx cancelado ou fechamento normal do servidor)
func (c *Client) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Client) fire(t trigger) Status {
	c.mu.Lock()
	st := c.opts.Policy.next(c.status, t)
	changed := st != c.status
	c.status = st
	c.mu.Unlock()

	if changed {
		c.log.Debug("feed state", zap.Stringer("state", st.State), zap.Duration("backoff", st.Backoff))
		if c.opts.OnState != nil {
			c.opts.OnState(st)
		}
	}
	return st
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer c.fire(trgStop)

	c.fire(trgStart)
	for {
		conn, _, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			st := c.fire(trgFailed)
			c.log.Warn("feed dial failed", zap.Error(err), zap.Duration("retry_in", st.Backoff))
			if !c.wait(ctx, st.Backoff) {
				return
			}
			continue
		}

		c.fire(trgOpened)
		metrics.FeedConnects.Inc()
		c.log.Info("connected to odds feed", zap.String("url", c.opts.URL))

		err = c.listen(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		if websocket.IsCloseError(err, CloseExpected) {
			c.log.Info("odds feed closed by server")
			c.fire(trgClosedNormally)
			return
		}
		st := c.fire(trgFailed)
		c.log.Warn("odds feed dropped", zap.Error(err), zap.Duration("retry_in", st.Backoff))
		if !c.wait(ctx, st.Backoff) {
			return
		}
	}
}

// wait dorme o backoff; false se ctx acabou antes
func (c *Client) wait(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		c.fire(trgRetry)
		metrics.FeedReconnects.Inc()
		return true
	}
}

func (c *Client) listen(ctx context.Context, conn *websocket.Conn) error {
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(CloseExpected, "unsubscribe")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		msg, verdict := ParseFrame(data, c.opts.EventID)
		metrics.FeedFrames.WithLabelValues(string(verdict)).Inc()
		if verdict != FrameInitial && verdict != FrameUpdate {
			c.log.Debug("feed frame dropped", zap.String("verdict", string(verdict)))
			continue
		}
		if c.opts.OnMessage != nil {
			c.opts.OnMessage(msg)
		}
	}
}

// Verdict classifica um frame recebido
type Verdict string

const (
	FrameInitial   Verdict = events.OddsMessageInitial
	FrameUpdate    Verdict = events.OddsMessageUpdate
	FrameMalformed Verdict = "malformed"
	FrameIgnored   Verdict = "ignored"
)

// ParseFrame decodifica o JSON e descarta tipos desconhecidos e event_id de outro evento.
// Frames sem event_id são aceitos.
func ParseFrame(data []byte, eventID string) (events.OddsMessage, Verdict) {
	var msg events.OddsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return events.OddsMessage{}, FrameMalformed
	}
	switch msg.Type {
	case events.OddsMessageInitial, events.OddsMessageUpdate:
	default:
		return events.OddsMessage{}, FrameIgnored
	}
	if msg.EventID != "" && msg.EventID != eventID {
		return events.OddsMessage{}, FrameIgnored
	}
	return msg, Verdict(msg.Type)
}
