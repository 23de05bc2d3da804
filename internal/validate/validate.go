// Package validate concentra as validações feitas no cliente antes de qualquer
// chamada de rede: comentário, valor de aposta, apelido, senha e rascunho de evento.
package validate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Limites aceitos pelo backend.
const (
	CommentMaxLen  = 500
	NicknameMinLen = 2
	NicknameMaxLen = 20
	PasswordMinLen = 8
	PasswordMaxLen = 20
	pointMaxDigits = 10
)

// Error é uma falha de validação local; nunca gera round-trip.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string { return e.Field + ": " + e.Message }

// IsValidation indica se err (ou algo embrulhado nele) é *Error
func IsValidation(err error) bool {
	var ve *Error
	return errors.As(err, &ve)
}

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	_ = val.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return val
}

type commentInput struct {
	Content string `validate:"notblank,min=1,max=500"`
}

// Comment aceita 1–500 caracteres (code points) que não sejam só espaços
func Comment(content string) error {
	if err := v.Struct(commentInput{Content: content}); err != nil {
		return translate(err, map[string]string{
			"Content": fmt.Sprintf("comment must be 1-%d characters and not blank", CommentMaxLen),
		})
	}
	return nil
}

type betInput struct {
	OptionID string `validate:"required"`
	Amount   int64  `validate:"gte=1"`
}

// Bet exige uma opção selecionada e pelo menos 1 ponto
func Bet(optionID string, amount int64) error {
	if err := v.Struct(betInput{OptionID: optionID, Amount: amount}); err != nil {
		return translate(err, map[string]string{
			"OptionID": "select an option first",
			"Amount":   "bet at least 1 point",
		})
	}
	return nil
}

// NormalizePointInput mantém só dígitos (permite colar "1,000") e corta em 10 dígitos
func NormalizePointInput(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == pointMaxDigits {
				break
			}
		}
	}
	return b.String()
}

// ParsePointAmount converte a entrada do usuário em pontos; entrada vazia vale 0
func ParsePointAmount(raw string) int64 {
	var n int64
	for _, r := range NormalizePointInput(raw) {
		n = n*10 + int64(r-'0')
	}
	return n
}

type nicknameInput struct {
	Nickname string `validate:"min=2,max=20"`
}

// Nickname devolve o apelido sem espaços nas pontas, com 2–20 caracteres
func Nickname(raw string) (string, error) {
	next := strings.TrimSpace(raw)
	if err := v.Struct(nicknameInput{Nickname: next}); err != nil {
		return "", translate(err, map[string]string{
			"Nickname": fmt.Sprintf("nickname must be %d-%d characters", NicknameMinLen, NicknameMaxLen),
		})
	}
	return next, nil
}

type passwordInput struct {
	CurrentPassword string `validate:"notblank"`
	NewPassword     string `validate:"min=8,max=20,nefield=CurrentPassword"`
}

// PasswordChange valida a troca de senha de contas LOCAL
func PasswordChange(current, next string) error {
	if err := v.Struct(passwordInput{CurrentPassword: current, NewPassword: next}); err != nil {
		return translate(err, map[string]string{
			"CurrentPassword":     "enter the current password",
			"NewPassword":         fmt.Sprintf("new password must be %d-%d characters", PasswordMinLen, PasswordMaxLen),
			"NewPassword.nefield": "new password must differ from the current one",
		})
	}
	return nil
}

// EventDraft é o formulário de criação de evento antes do upload.
type EventDraft struct {
	Title       string        `validate:"notblank"`
	Description string
	StartAt     time.Time     `validate:"required"`
	EndAt       time.Time     `validate:"required,gtfield=StartAt"`
	Options     []DraftOption `validate:"min=2,dive"`
	ImageCount  int           `validate:"gte=0"`
}

// DraftOption referencia a imagem da opção; -1 = sem imagem
type DraftOption struct {
	Name       string `validate:"notblank"`
	ImageIndex int    `validate:"gte=-1"`
}

// Event valida o rascunho, incluindo os índices de imagem
func Event(d EventDraft) error {
	if err := v.Struct(d); err != nil {
		return translate(err, map[string]string{
			"Title":      "title is required",
			"StartAt":    "start time is required",
			"EndAt":      "end time must be after start time",
			"Options":    "at least two options are required",
			"Name":       "option name is required",
			"ImageIndex": "option image index must be -1 or greater",
		})
	}
	for _, o := range d.Options {
		if o.ImageIndex >= d.ImageCount {
			return &Error{Field: "ImageIndex", Message: "option image index exceeds uploaded files"}
		}
	}
	return nil
}

// translate converte o primeiro erro do validator em *Error.
// A chave "Campo.tag" tem precedência sobre "Campo".
func translate(err error, messages map[string]string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	msg, ok := messages[fe.Field()+"."+fe.Tag()]
	if !ok {
		msg, ok = messages[fe.Field()]
	}
	if !ok {
		msg = "failed " + fe.Tag() + " check"
	}
	return &Error{Field: fe.Field(), Message: msg}
}
