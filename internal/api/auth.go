package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

func (c *Client) SendVerificationCode(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/users/send-verification-code", nil, events.SendVerificationCodeRequest{Email: email}, nil)
}

func (c *Client) VerifyCode(ctx context.Context, email, code string) (events.VerifyCodeResponse, error) {
	var out events.VerifyCodeResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/users/verify-code", nil, events.VerifyCodeRequest{Email: email, Code: code}, &out)
	return out, err
}

func (c *Client) Signup(ctx context.Context, req events.SignupRequest) (events.SignupResponse, error) {
	var out events.SignupResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/users", nil, req, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, email, password string) (events.AuthPayload, error) {
	var out events.AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", nil, events.LoginRequest{Email: email, Password: password}, &out)
	return out.Data, err
}

// Refresh renova o access token. Com login Google o backend usa cookies HttpOnly
// e pode devolver o token também no corpo.
func (c *Client) Refresh(ctx context.Context) (events.AuthPayload, error) {
	var out events.AuthResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", nil, struct{}{}, &out)
	return out.Data, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, struct{}{}, nil)
}

// GoogleLoginURL é para onde o usuário é redirecionado para iniciar o OAuth
func (c *Client) GoogleLoginURL() string {
	return c.BaseURL + "/api/auth/google/login"
}

// GoogleCallback troca o code do OAuth pela sessão. IsNewUser pede cadastro com social_type GOOGLE.
func (c *Client) GoogleCallback(ctx context.Context, code, state string) (events.AuthPayload, error) {
	q := url.Values{}
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	var out events.AuthResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/google/callback", q, nil, &out)
	return out.Data, err
}
