package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wafflestudio/23-5-team7-web/internal/api"
	"github.com/wafflestudio/23-5-team7-web/internal/detail"
	"github.com/wafflestudio/23-5-team7-web/internal/feed"
	"github.com/wafflestudio/23-5-team7-web/internal/relay"
	"github.com/wafflestudio/23-5-team7-web/internal/session"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/cache"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/config"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/metrics"
	"github.com/wafflestudio/23-5-team7-web/internal/watcher/httpapi"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

func main() {
	eventID := flag.String("event", os.Getenv("TOTO_WATCH_EVENT_ID"), "event id to watch (env: TOTO_WATCH_EVENT_ID)")
	flag.Parse()

	cfg := config.LoadFor("toto-watcher")
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	if strings.TrimSpace(*eventID) == "" {
		log.Fatal("event id required (--event or TOTO_WATCH_EVENT_ID)")
	}
	log = log.With(zap.String("event_id", *eventID))
	log.Info("starting watcher", zap.String("api", cfg.APIBaseURL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// sessão persistida: o feed e o REST usam o mesmo token
	backend, closeBackend, err := session.OpenBackend(ctx, session.BackendConfig{
		Kind:      cfg.SessionBackend,
		Dir:       cfg.SessionDir,
		RedisAddr: cfg.RedisAddr,
		RedisKey:  cfg.SessionKey,
	})
	if err != nil {
		log.Fatal("session backend", zap.Error(err))
	}
	defer closeBackend()

	store, err := session.Open(ctx, backend, log)
	if err != nil {
		log.Warn("stored session unreadable, starting logged out", zap.Error(err))
		store = session.NewStore(backend, log)
	}
	store.Subscribe(func(ch session.Change) {
		if ch.Kind == session.ChangeExpired {
			log.Warn("session expired", zap.String("reason", ch.Reason))
		}
	})

	client := api.New(cfg.APIBaseURL, cfg.HTTPTimeout, store, log)
	engine := detail.New(client, *eventID, log)

	g, gctx := errgroup.WithContext(ctx)

	// a CLI pode logar ou deslogar no mesmo backend enquanto o watcher roda;
	// sem usuário presente, não há logout por inatividade
	mgr := session.NewManager(store, client, log)
	mgr.SyncBackend = true
	mgr.InactivityLimit = 0
	g.Go(func() error {
		mgr.Run(gctx)
		return nil
	})

	// relay só quando há Kafka ou Redis configurados
	var (
		sinks relay.Multi
		snaps httpapi.Snapshots
	)
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		pub, err := relay.NewKafkaPublisher(ctx, brokers, cfg.TopicOddsChanges, cfg.KafkaTopicAutoCreate, log)
		if err != nil {
			log.Fatal("kafka publisher", zap.Error(err))
		}
		defer pub.Close()
		sinks = append(sinks, pub)
		log.Info("kafka relay enabled", zap.Strings("brokers", brokers), zap.String("topic", cfg.TopicOddsChanges))
	}
	if cfg.RelayRedis {
		rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr)
		if err != nil {
			log.Fatal("redis connect", zap.Error(err))
		}
		defer rdb.Close()
		rs := relay.NewRedisSnapshot(rdb, cfg.RelayRedisTTL)
		sinks = append(sinks, rs)
		snaps = rs
		log.Info("redis relay enabled", zap.String("channel", relay.ChannelOddsBroadcast))
	}
	if len(sinks) > 0 {
		r := relay.New(sinks, relay.DefaultBuffer, log)
		engine.OnOddsChanged(r.Enqueue)
		g.Go(func() error { return ignoreCanceled(r.Run(gctx)) })
	}

	if err := engine.Load(ctx); err != nil {
		log.Warn("initial load failed", zap.Error(err))
	}

	feedURL, err := feed.URLFor(cfg.APIBaseURL, cfg.WSBaseURL, *eventID)
	if err != nil {
		log.Fatal("feed url", zap.Error(err))
	}
	fc := feed.New(feed.Options{
		URL:     feedURL,
		EventID: *eventID,
		Policy:  feed.Policy{Base: cfg.FeedBackoffBase, Max: cfg.FeedBackoffMax},
		Logger:  log,
		OnMessage: func(msg events.OddsMessage) {
			mgr.Touch(gctx)
			res := engine.ApplyFeed(gctx, msg)
			if res.RefetchErr != nil {
				log.Warn("fallback refetch failed", zap.Error(res.RefetchErr))
			}
		},
		OnState: func(s feed.Status) {
			log.Info("feed state", zap.Stringer("state", s.State), zap.Int("attempts", s.Attempts), zap.Duration("backoff", s.Backoff))
		},
	})
	fc.Start(gctx)

	// relógio do evento: gauge a cada tick, log só quando o rótulo muda
	logLabel := detail.LabelChanges(func(p detail.Progress) {
		log.Info("event clock", zap.String("label", p.Label), zap.Float64("percent", p.Percent))
	})
	g.Go(func() error {
		engine.RunClock(gctx, time.Local, func(p detail.Progress) {
			metrics.EventProgress.Set(p.Percent)
			logLabel(p)
		})
		return nil
	})

	// métricas e health
	msrv := metrics.StartMetricsServer(cfg.MetricsPort, func(context.Context) error {
		if !engine.View().Loaded {
			return errors.New("event not loaded")
		}
		return nil
	})
	log.Info("metrics/health listening", zap.String("addr", msrv.Addr))

	// API local de depuração
	srv := httpapi.NewServer(cfg.HTTPPort, &httpapi.API{
		Detail:    engine,
		Feed:      fc,
		Session:   store,
		Snapshots: snaps,
		Activity:  mgr.Touch,
		Logger:    log,
	})
	g.Go(func() error {
		log.Info("debug api listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	<-gctx.Done()
	log.Info("shutdown signal received")

	fc.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = msrv.Shutdown(shutdownCtx)

	if err := g.Wait(); err != nil {
		log.Error("watcher stopped with error", zap.Error(err))
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
