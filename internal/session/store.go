package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type ChangeKind string

const (
	ChangeLogin     ChangeKind = "login"
	ChangeRefreshed ChangeKind = "refreshed"
	ChangeProfile   ChangeKind = "profile"
	ChangeLogout    ChangeKind = "logout"
	ChangeExpired   ChangeKind = "expired"
)

// Change é entregue a cada assinante depois que o estado já foi trocado.
type Change struct {
	Kind    ChangeKind
	Reason  string
	Session Credentials
}

// Store é a única fonte de verdade da sessão no processo.
type Store struct {
	mu      sync.RWMutex
	creds   Credentials
	backend Backend
	log     *zap.Logger

	subMu  sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

// Open carrega a credencial persistida
func Open(ctx context.Context, backend Backend, log *zap.Logger) (*Store, error) {
	s := NewStore(backend, log)
	c, err := s.backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.creds = c
	return s, nil
}

func NewStore(backend Backend, log *zap.Logger) *Store {
	if backend == nil {
		backend = MemoryBackend{}
	}
	return &Store{
		backend: backend,
		log:     logger.OrNop(log),
		subs:    make(map[int]func(Change)),
	}
}

func (s *Store) Snapshot() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.clone()
}

func (s *Store) LoggedIn() bool { return s.Snapshot().LoggedIn() }

// AccessToken satisfaz api.TokenSource
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.AccessToken
}

func (s *Store) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds.Nickname()
}

// Subscribe registra fn; a função devolvida cancela a inscrição.
func (s *Store) Subscribe(fn func(Change)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(ch Change) {
	s.subMu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}

// mutate aplica f, persiste e notifica fora do lock
func (s *Store) mutate(ctx context.Context, kind ChangeKind, reason string, f func(*Credentials)) error {
	s.mu.Lock()
	next := s.creds.clone()
	f(&next)
	s.creds = next
	snap := next.clone()
	s.mu.Unlock()

	var err error
	if snap.LoggedIn() || kind == ChangeProfile {
		err = s.backend.Save(ctx, snap)
	} else {
		err = s.backend.Clear(ctx)
	}
	if err != nil {
		s.log.Warn("failed to persist session", zap.String("change", string(kind)), zap.Error(err))
	}

	s.publish(Change{Kind: kind, Reason: reason, Session: snap})
	return err
}

// SetLogin grava o resultado de login/callback. method "" vira MethodPassword.
func (s *Store) SetLogin(ctx context.Context, p events.AuthPayload, method AuthMethod) error {
	if method == "" {
		method = MethodPassword
	}
	return s.mutate(ctx, ChangeLogin, "", func(c *Credentials) {
		*c = Credentials{
			AccessToken:  p.AccessToken,
			RefreshToken: p.RefreshToken,
			AuthMethod:   method,
		}
		if p.User != nil {
			c.User = &events.User{ID: p.User.UserID, Email: p.User.Email, Nickname: p.User.Nickname}
		}
	})
}

// ApplyRefresh mescla o resultado de um refresh: token novo se vier, e perfil parcial.
func (s *Store) ApplyRefresh(ctx context.Context, p events.AuthPayload) error {
	return s.mutate(ctx, ChangeRefreshed, "", func(c *Credentials) {
		if p.AccessToken != "" {
			c.AccessToken = p.AccessToken
		}
		if p.RefreshToken != "" {
			c.RefreshToken = p.RefreshToken
		}
		if p.User != nil && p.User.Nickname != "" {
			mergeUser(c, events.User{ID: p.User.UserID, Email: p.User.Email, Nickname: p.User.Nickname})
		}
	})
}

// UpdateProfile atualiza campos não vazios do perfil em cache
func (s *Store) UpdateProfile(ctx context.Context, u events.User) error {
	return s.mutate(ctx, ChangeProfile, "", func(c *Credentials) {
		mergeUser(c, u)
	})
}

// Clear apaga a sessão. kind deve ser ChangeLogout ou ChangeExpired.
func (s *Store) Clear(ctx context.Context, kind ChangeKind, reason string) error {
	return s.mutate(ctx, kind, reason, func(c *Credentials) {
		*c = Credentials{}
	})
}

// Reload relê o backend quando outro processo pode ter escrito (arquivo
// compartilhado com a CLI ou RedisBackend). Só notifica se a credencial mudou.
func (s *Store) Reload(ctx context.Context) (changed bool, err error) {
	if _, ok := s.backend.(MemoryBackend); ok {
		return false, nil
	}
	c, err := s.backend.Load(ctx)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	if sameCredentials(s.creds, c) {
		s.mu.Unlock()
		return false, nil
	}
	s.creds = c
	s.mu.Unlock()
	kind := ChangeLogin
	if !c.LoggedIn() {
		kind = ChangeLogout
	}
	s.publish(Change{Kind: kind, Reason: ReasonExternal, Session: c.clone()})
	return true, nil
}

func sameCredentials(a, b Credentials) bool {
	if a.AccessToken != b.AccessToken || a.RefreshToken != b.RefreshToken || a.AuthMethod != b.AuthMethod {
		return false
	}
	if a.User == nil || b.User == nil {
		return a.User == nil && b.User == nil
	}
	return *a.User == *b.User
}

func mergeUser(c *Credentials, u events.User) {
	if c.User == nil {
		c.User = &events.User{}
	}
	if u.ID != "" {
		c.User.ID = u.ID
	}
	if u.Email != "" {
		c.User.Email = u.Email
	}
	if u.Nickname != "" {
		c.User.Nickname = u.Nickname
	}
}
