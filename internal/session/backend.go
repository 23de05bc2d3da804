package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/cache"
)

// Backend persiste as credenciais. Load sem nada salvo devolve Credentials{} e nil.
type Backend interface {
	Load(ctx context.Context) (Credentials, error)
	Save(ctx context.Context, c Credentials) error
	Clear(ctx context.Context) error
}

// FileBackend grava credentials.json com permissão 0600
type FileBackend struct {
	Dir string
}

func (b FileBackend) path() string { return filepath.Join(b.Dir, "credentials.json") }

func (b FileBackend) Load(_ context.Context) (Credentials, error) {
	raw, err := os.ReadFile(b.path())
	if errors.Is(err, os.ErrNotExist) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, err
	}
	var c Credentials
	if err := json.Unmarshal(raw, &c); err != nil {
		return Credentials{}, fmt.Errorf("parse %s: %w", b.path(), err)
	}
	return c, nil
}

func (b FileBackend) Save(_ context.Context, c Credentials) error {
	if err := os.MkdirAll(b.Dir, 0o700); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path(), raw, 0o600)
}

func (b FileBackend) Clear(_ context.Context) error {
	err := os.Remove(b.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// RedisBackend compartilha a sessão entre processos; última escrita vence.
type RedisBackend struct {
	Client *redis.Client
	Key    string
}

func (b RedisBackend) Load(ctx context.Context) (Credentials, error) {
	raw, err := b.Client.Get(ctx, b.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, fmt.Errorf("redis get %s: %w", b.Key, err)
	}
	var c Credentials
	if err := json.Unmarshal(raw, &c); err != nil {
		return Credentials{}, fmt.Errorf("parse session %s: %w", b.Key, err)
	}
	return c, nil
}

func (b RedisBackend) Save(ctx context.Context, c Credentials) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return b.Client.Set(ctx, b.Key, raw, 0).Err()
}

func (b RedisBackend) Clear(ctx context.Context) error {
	return b.Client.Del(ctx, b.Key).Err()
}

// MemoryBackend não persiste nada; útil para testes e processos efêmeros
type MemoryBackend struct{}

func (MemoryBackend) Load(context.Context) (Credentials, error) { return Credentials{}, nil }
func (MemoryBackend) Save(context.Context, Credentials) error   { return nil }
func (MemoryBackend) Clear(context.Context) error               { return nil }

// BackendConfig vem de TOTO_SESSION_BACKEND e afins
type BackendConfig struct {
	Kind      string // "file" | "redis" | "memory"
	Dir       string
	RedisAddr string
	RedisKey  string
}

// OpenBackend devolve o backend escolhido e a função que libera seus recursos
func OpenBackend(ctx context.Context, bc BackendConfig) (Backend, func() error, error) {
	noop := func() error { return nil }
	switch bc.Kind {
	case "", "file":
		return FileBackend{Dir: bc.Dir}, noop, nil
	case "redis":
		rdb, err := cache.ConnectRedis(ctx, bc.RedisAddr)
		if err != nil {
			return nil, noop, err
		}
		return RedisBackend{Client: rdb, Key: bc.RedisKey}, rdb.Close, nil
	case "memory":
		return MemoryBackend{}, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown session backend %q", bc.Kind)
	}
}
