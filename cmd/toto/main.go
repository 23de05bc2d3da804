package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/api"
	"github.com/wafflestudio/23-5-team7-web/internal/session"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/config"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
)

func main() {
	apiBase := flag.String("api-base", "", "backend base URL (env: TOTO_API_BASE_URL)")
	flag.Usage = func() { usage(os.Stderr) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage(os.Stderr)
		os.Exit(2)
	}

	cfg := config.Load()
	if strings.TrimSpace(*apiBase) != "" {
		cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(*apiBase), "/")
	}

	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, closeBackend, err := session.OpenBackend(ctx, session.BackendConfig{
		Kind:      cfg.SessionBackend,
		Dir:       cfg.SessionDir,
		RedisAddr: cfg.RedisAddr,
		RedisKey:  cfg.SessionKey,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "session backend:", err)
		os.Exit(1)
	}
	defer closeBackend()

	store, err := session.Open(ctx, backend, log)
	if err != nil {
		log.Warn("stored session unreadable, starting logged out", zap.Error(err))
		store = session.NewStore(backend, log)
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		store: store,
		api:   api.New(cfg.APIBaseURL, cfg.HTTPTimeout, store, log),
		out:   os.Stdout,
		in:    os.Stdin,
	}
	if err := a.dispatch(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
