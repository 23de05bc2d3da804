// Package account monta a página "minha conta": perfil, ranking, histórico de
// apostas paginado e as trocas de apelido e senha.
package account

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wafflestudio/23-5-team7-web/internal/api"
	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
	"github.com/wafflestudio/23-5-team7-web/internal/validate"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

const (
	BetsPageSize = 20
	// o backend recusa limit > 100
	HistoryLimit = 100
)

var ErrSocialAccount = errors.New("social login accounts cannot change password")

type API interface {
	GetMyProfile(ctx context.Context) (events.Profile, error)
	GetMyRanking(ctx context.Context) (events.MyRanking, error)
	ListMyBets(ctx context.Context, p api.ListMyBetsParams) (events.MyBetsResponse, error)
	ListMyPointHistory(ctx context.Context, limit, offset int) (events.PointHistoryResponse, error)
	UpdateMyNickname(ctx context.Context, nickname string) (events.UpdateNicknameResponse, error)
	UpdateMyPassword(ctx context.Context, current, next string) error
}

// ProfileCache recebe o apelido novo; session.Store satisfaz
type ProfileCache interface {
	UpdateProfile(ctx context.Context, u events.User) error
}

type Dashboard struct {
	Profile events.Profile
	Ranking *events.MyRanking // nil se o ranking falhou
	Bets    []events.Bet
	Total   int
	Status  events.BetStatus
	Offset  int
	// soma de change_amount por bet_id; aposta sem entrada fica fora do mapa
	ChangeByBet map[string]int64
}

func (d Dashboard) CanPrev() bool { return d.Offset > 0 }

func (d Dashboard) CanNext() bool { return d.Offset+BetsPageSize < d.Total }

func (d Dashboard) PrevOffset() int { return max(0, d.Offset-BetsPageSize) }

func (d Dashboard) NextOffset() int { return d.Offset + BetsPageSize }

type Service struct {
	api   API
	cache ProfileCache
	log   *zap.Logger
}

func New(a API, cache ProfileCache, log *zap.Logger) *Service {
	return &Service{api: a, cache: cache, log: logger.OrNop(log)}
}

// LoadDashboard busca tudo em paralelo. Perfil e apostas são obrigatórios;
// ranking e histórico de pontos são opcionais.
func (s *Service) LoadDashboard(ctx context.Context, status events.BetStatus, offset int) (Dashboard, error) {
	d := Dashboard{Status: status, Offset: max(0, offset)}
	var history []events.PointHistoryItem

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.api.GetMyProfile(gctx)
		if err != nil {
			return fmt.Errorf("profile: %w", err)
		}
		d.Profile = p
		return nil
	})
	g.Go(func() error {
		r, err := s.api.GetMyRanking(gctx)
		if err != nil {
			s.log.Debug("ranking unavailable", zap.Error(err))
			return nil
		}
		d.Ranking = &r
		return nil
	})
	g.Go(func() error {
		b, err := s.api.ListMyBets(gctx, api.ListMyBetsParams{Status: status, Limit: BetsPageSize, Offset: d.Offset})
		if err != nil {
			return fmt.Errorf("bets: %w", err)
		}
		d.Bets = b.Bets
		d.Total = b.TotalCount
		return nil
	})
	g.Go(func() error {
		h, err := s.api.ListMyPointHistory(gctx, HistoryLimit, 0)
		if err != nil {
			s.log.Debug("point history unavailable", zap.Error(err))
			return nil
		}
		history = h.History
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{Status: status, Offset: d.Offset}, err
	}

	d.ChangeByBet = ChangeByBet(history)
	return d, nil
}

// ChangeByBet soma as linhas do histórico por aposta
func ChangeByBet(history []events.PointHistoryItem) map[string]int64 {
	out := make(map[string]int64)
	for _, h := range history {
		if h.BetID == "" {
			continue
		}
		out[h.BetID] += h.ChangeAmount
	}
	return out
}

// ChangeNickname valida, envia e atualiza o apelido em cache da sessão
func (s *Service) ChangeNickname(ctx context.Context, raw string) (string, error) {
	next, err := validate.Nickname(raw)
	if err != nil {
		return "", err
	}
	res, err := s.api.UpdateMyNickname(ctx, next)
	if err != nil {
		return "", err
	}
	nick := res.Nickname
	if nick == "" {
		nick = next
	}
	if s.cache != nil {
		if err := s.cache.UpdateProfile(ctx, events.User{Nickname: nick}); err != nil {
			s.log.Warn("session nickname sync failed", zap.Error(err))
		}
	}
	return nick, nil
}

// ChangePassword só vale para contas LOCAL (social_type vazio conta como LOCAL)
func (s *Service) ChangePassword(ctx context.Context, profile events.Profile, current, next string) error {
	if profile.SocialType != "" && profile.SocialType != events.SocialLocal {
		return ErrSocialAccount
	}
	if err := validate.PasswordChange(current, next); err != nil {
		return err
	}
	return s.api.UpdateMyPassword(ctx, current, next)
}
