package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type ListMyBetsParams struct {
	Status events.BetStatus // "" = todos
	Limit  int
	Offset int
}

func (c *Client) ListMyBets(ctx context.Context, p ListMyBetsParams) (events.MyBetsResponse, error) {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	var out events.MyBetsResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/users/me/bets", q, nil, &out)
	return out, err
}

// ListMyPointHistory aceita limit <= 100
func (c *Client) ListMyPointHistory(ctx context.Context, limit, offset int) (events.PointHistoryResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	var out events.PointHistoryResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/users/me/points/history", q, nil, &out)
	return out, err
}

func (c *Client) GetMyProfile(ctx context.Context) (events.Profile, error) {
	var out events.Profile
	err := c.doJSON(ctx, http.MethodGet, "/api/users/me/profile", nil, nil, &out)
	return out, err
}

func (c *Client) GetMyRanking(ctx context.Context) (events.MyRanking, error) {
	var out events.MyRanking
	err := c.doJSON(ctx, http.MethodGet, "/api/users/me/ranking", nil, nil, &out)
	return out, err
}

func (c *Client) UpdateMyNickname(ctx context.Context, nickname string) (events.UpdateNicknameResponse, error) {
	var out events.UpdateNicknameResponse
	err := c.doJSON(ctx, http.MethodPatch, "/api/users/me/nickname", nil, events.UpdateNicknameRequest{Nickname: nickname}, &out)
	return out, err
}

func (c *Client) UpdateMyPassword(ctx context.Context, current, next string) error {
	body := events.UpdatePasswordRequest{CurrentPassword: current, NewPassword: next}
	return c.doJSON(ctx, http.MethodPatch, "/api/users/me/password", nil, body, nil)
}

// GetUserRanking devolve o ranking geral por pontos
func (c *Client) GetUserRanking(ctx context.Context, limit int) (events.RankingResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out events.RankingResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/users/ranking", q, nil, &out)
	return out, err
}
