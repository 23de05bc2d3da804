// Package session mantém o estado de autenticação do processo: credencial
// persistida, perfil em cache e notificação de login/logout para assinantes.
package session

import (
	"errors"
	"strings"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

// AuthMethod marca logins que não dependem só do access token (ex.: cookies do Google)
type AuthMethod string

const (
	MethodPassword AuthMethod = "password"
	MethodGoogle   AuthMethod = "google"
)

var ErrNotLoggedIn = errors.New("not logged in")

// Credentials é exatamente o que sobrevive a um restart do processo.
type Credentials struct {
	AccessToken  string       `json:"access_token,omitempty"`
	RefreshToken string       `json:"refresh_token,omitempty"`
	User         *events.User `json:"user,omitempty"`
	AuthMethod   AuthMethod   `json:"auth_method,omitempty"`
}

// LoggedIn: token não vazio ou método alternativo reconhecido
func (c Credentials) LoggedIn() bool {
	return strings.TrimSpace(c.AccessToken) != "" || c.AuthMethod == MethodGoogle
}

// Nickname devolve o apelido em cache, "" se desconhecido
func (c Credentials) Nickname() string {
	if c.User == nil {
		return ""
	}
	return c.User.Nickname
}

func (c Credentials) clone() Credentials {
	out := c
	if c.User != nil {
		u := *c.User
		out.User = &u
	}
	return out
}
