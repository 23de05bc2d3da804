// Package api expõe funções tipadas sobre a API REST do SnuToto.
// Todas as chamadas recebem context e anexam o bearer token quando houver sessão.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wafflestudio/23-5-team7-web/internal/shared/logger"
)

// TokenSource fornece o access token atual; "" = sem autenticação.
type TokenSource interface {
	AccessToken() string
}

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
	Log     *zap.Logger
}

// New cria um cliente com timeout por requisição
func New(base string, timeout time.Duration, tokens TokenSource, log *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(base, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Tokens:  tokens,
		Log:     logger.OrNop(log),
	}
}

// Error é uma resposta não-2xx do backend. Message vem do corpo quando possível.
type Error struct {
	Status  int
	Code    string
	Message string
	Body    []byte
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Code != "":
		return fmt.Sprintf("http %d: %s (%s)", e.Status, e.Message, e.Code)
	case e.Message != "":
		return fmt.Sprintf("http %d: %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("request failed: %d", e.Status)
	}
}

// IsStatus indica se err é um *Error com o status dado
func IsStatus(err error, status int) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Status == status
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.Tokens != nil {
		if tok := strings.TrimSpace(c.Tokens.AccessToken()); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

// doJSON serializa body (se houver), executa e decodifica a resposta em out
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var r io.Reader
	ct := ""
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		r = bytes.NewReader(b)
		ct = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, query, r, ct)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	res, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s %s: %w", req.Method, req.URL.Path, err)
	}

	c.Log.Debug("api call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", res.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return parseError(res.StatusCode, b)
	}
	if out == nil || len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// parseError aceita {"error": "..."}, {"error": {"code","message"}},
// {"message": "..."}, {"detail": "..."} e {"error_code": "..."}
func parseError(status int, body []byte) error {
	e := &Error{Status: status, Body: body}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		e.Message = strings.TrimSpace(string(body))
		if len(e.Message) > 200 {
			e.Message = e.Message[:200]
		}
		return e
	}
	if code, ok := raw["error_code"].(string); ok {
		e.Code = code
	}
	switch v := raw["error"].(type) {
	case string:
		e.Message = v
	case map[string]any:
		if code, ok := v["code"].(string); ok {
			e.Code = code
		}
		if msg, ok := v["message"].(string); ok {
			e.Message = msg
		}
	}
	if e.Message == "" {
		if msg, ok := raw["message"].(string); ok {
			e.Message = msg
		} else if msg, ok := raw["detail"].(string); ok {
			e.Message = msg
		}
	}
	return e
}

func pathEscape(s string) string { return url.PathEscape(s) }
