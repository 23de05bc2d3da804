package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

const (
	DefaultInactivityLimit = 15 * time.Minute
	DefaultRefreshCooldown = 60 * time.Second
	DefaultTickInterval    = 30 * time.Second

	ReasonTokenExpired = "TOKEN_EXPIRED"
	ReasonInactive     = "INACTIVE"
	ReasonExternal     = "EXTERNAL" // outro processo escreveu no backend
)

type Refresher interface {
	Refresh(ctx context.Context) (events.AuthPayload, error)
}

// Manager mantém a sessão viva enquanto há atividade e a encerra após inatividade.
// InactivityLimit <= 0 desliga o logout por inatividade. Com SyncBackend cada tick
// relê o backend antes de tentar o refresh.
type Manager struct {
	store *Store
	api   Refresher
	log   *zap.Logger

	InactivityLimit time.Duration
	RefreshCooldown time.Duration
	TickInterval    time.Duration
	SyncBackend     bool
	Now             func() time.Time

	mu           sync.Mutex
	lastActivity time.Time
	lastRefresh  time.Time
}

func NewManager(store *Store, api Refresher, log *zap.Logger) *Manager {
	return &Manager{
		store:           store,
		api:             api,
		log:             logger.OrNop(log),
		InactivityLimit: DefaultInactivityLimit,
		RefreshCooldown: DefaultRefreshCooldown,
		TickInterval:    DefaultTickInterval,
		Now:             time.Now,
		lastActivity:    time.Now(),
	}
}

// Touch registra atividade do usuário e tenta um refresh (no máximo um por cooldown).
func (m *Manager) Touch(ctx context.Context) {
	m.mu.Lock()
	m.lastActivity = m.Now()
	m.mu.Unlock()
	m.MaybeRefresh(ctx)
}

// MaybeRefresh devolve true se um refresh foi de fato tentado.
func (m *Manager) MaybeRefresh(ctx context.Context) bool {
	if !m.store.LoggedIn() {
		return false
	}

	m.mu.Lock()
	now := m.Now()
	if !m.lastRefresh.IsZero() && now.Sub(m.lastRefresh) < m.RefreshCooldown {
		m.mu.Unlock()
		return false
	}
	if m.InactivityLimit > 0 && now.Sub(m.lastActivity) > m.InactivityLimit {
		m.mu.Unlock()
		return false
	}
	m.lastRefresh = now
	m.mu.Unlock()

	p, err := m.api.Refresh(ctx)
	if err != nil {
		m.log.Warn("session refresh failed, clearing session", zap.Error(err))
		_ = m.store.Clear(ctx, ChangeExpired, ReasonTokenExpired)
		return true
	}
	_ = m.store.ApplyRefresh(ctx, p)
	return true
}

// CheckInactivity limpa a sessão se o limite de inatividade passou
func (m *Manager) CheckInactivity(ctx context.Context) bool {
	if m.InactivityLimit <= 0 || !m.store.LoggedIn() {
		return false
	}
	m.mu.Lock()
	idle := m.Now().Sub(m.lastActivity)
	m.mu.Unlock()
	if idle <= m.InactivityLimit {
		return false
	}
	m.log.Info("session cleared after inactivity", zap.Duration("idle", idle))
	_ = m.store.Clear(ctx, ChangeLogout, ReasonInactive)
	return true
}

// Run faz um refresh inicial após 1s e depois verifica a cada TickInterval até ctx acabar.
func (m *Manager) Run(ctx context.Context) {
	first := time.NewTimer(time.Second)
	defer first.Stop()
	ticker := time.NewTicker(m.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-first.C:
			m.MaybeRefresh(ctx)
		case <-ticker.C:
			m.sync(ctx)
			m.MaybeRefresh(ctx)
			m.CheckInactivity(ctx)
		}
	}
}

// sync traz logins e logouts feitos por outro processo
func (m *Manager) sync(ctx context.Context) {
	if !m.SyncBackend {
		return
	}
	changed, err := m.store.Reload(ctx)
	if err != nil {
		m.log.Warn("session reload failed", zap.Error(err))
		return
	}
	if changed {
		m.log.Info("session changed by another process", zap.Bool("logged_in", m.store.LoggedIn()))
	}
}
