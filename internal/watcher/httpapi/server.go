// Package httpapi expõe o estado do watcher numa API REST local de depuração.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/detail"
	"github.com/wafflestudio/23-5-team7-web/internal/feed"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

// Detail é o que a API precisa do motor de detalhe; *detail.Engine satisfaz
type Detail interface {
	EventID() string
	View() detail.View
	Progress(loc *time.Location) detail.Progress
	Refresh(ctx context.Context) error
}

type FeedStatus interface {
	Status() feed.Status
}

type Session interface {
	LoggedIn() bool
	Nickname() string
}

// Snapshots lê o último snapshot repassado pelo relay; *relay.RedisSnapshot satisfaz
type Snapshots interface {
	Current(ctx context.Context, eventID string) (events.OddsChanged, bool, error)
}

// API agrega as fontes de estado do processo watcher
type API struct {
	Detail    Detail
	Feed      FeedStatus                // opcional
	Session   Session                   // opcional
	Snapshots Snapshots                 // opcional; só com relay Redis
	Activity  func(ctx context.Context) // chamado a cada requisição; mantém a sessão viva
	Location  *time.Location            // fuso dos rótulos de data; nil = Local
	Logger    *zap.Logger
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(a.touch)
	r.Get("/v1/events/{id}", a.getEvent)             // snapshot reconciliado
	r.Get("/v1/events/{id}/progress", a.getProgress) // barra de progresso e rótulo
	r.Post("/v1/events/{id}/refresh", a.refresh)     // força releitura REST
	r.Get("/v1/events/{id}/relay", a.getRelay)       // último snapshot no Redis
	r.Get("/v1/feed", a.getFeed)                     // estado da conexão ao vivo
	r.Get("/v1/session", a.getSession)
	return r
}

// touch conta cada requisição como atividade do usuário
func (a *API) touch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.Activity != nil {
			a.Activity(r.Context())
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) location() *time.Location {
	if a.Location == nil {
		return time.Local
	}
	return a.Location
}

func (a *API) log() *zap.Logger { return logger.OrNop(a.Logger) }

// NewServer embrulha o roteador num http.Server com timeouts
func NewServer(port string, a *API) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
}
