package detail

import (
	"context"
	"errors"

	"github.com/wafflestudio/23-5-team7-web/internal/validate"
	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

// Phase do fluxo de seleção/aposta da tela de detalhe
type Phase int

const (
	NoSelection Phase = iota
	OptionSelected
	BetFormOpen
	Submitting
)

func (p Phase) String() string {
	switch p {
	case OptionSelected:
		return "option_selected"
	case BetFormOpen:
		return "bet_form_open"
	case Submitting:
		return "submitting"
	default:
		return "no_selection"
	}
}

type Selection struct {
	Phase    Phase
	OptionID string
	BetError string
}

// Role é o papel de um elemento sob o ponteiro
type Role string

const (
	RoleNone       Role = ""
	RoleButton     Role = "button"
	RoleLink       Role = "a"
	RoleInput      Role = "input"
	RoleSelect     Role = "select"
	RoleTextarea   Role = "textarea"
	RoleLabel      Role = "label"
	RoleCheckbox   Role = "checkbox"
	RoleRadio      Role = "radio"
	RoleOptionCard Role = "option-card"
)

// InteractiveRoles nunca limpam nem alternam a seleção
var InteractiveRoles = map[Role]bool{
	RoleButton:   true,
	RoleLink:     true,
	RoleInput:    true,
	RoleSelect:   true,
	RoleTextarea: true,
	RoleLabel:    true,
	RoleCheckbox: true,
	RoleRadio:    true,
}

// Target é um elemento no caminho do ponteiro, do mais interno para o mais externo
type Target struct {
	Role     Role
	OptionID string
}

type Hit int

const (
	HitOutside Hit = iota
	HitInteractive
	HitOptionCard
)

// Route classifica um pointer-down. Controles interativos têm precedência sobre o card.
func Route(path []Target) (Hit, string) {
	for _, t := range path {
		if InteractiveRoles[t.Role] {
			return HitInteractive, ""
		}
	}
	for _, t := range path {
		if t.Role == RoleOptionCard {
			return HitOptionCard, t.OptionID
		}
	}
	return HitOutside, ""
}

// PointerDown limpa a seleção quando o clique cai fora de cards e controles
func (e *Engine) PointerDown(path []Target) {
	hit, _ := Route(path)
	if hit != HitOutside {
		return
	}
	e.mu.Lock()
	if e.sel.Phase != OptionSelected {
		e.mu.Unlock()
		return
	}
	e.sel = Selection{}
	v := e.commit()
	e.mu.Unlock()
	e.notify(v, SourceAction)
}

// ToggleOption alterna a seleção do card clicado
func (e *Engine) ToggleOption(optionID string) error {
	e.mu.Lock()
	if !hasOption(e.ev, optionID) {
		e.mu.Unlock()
		return ErrUnknownOption
	}
	if e.sel.Phase == Submitting {
		e.mu.Unlock()
		return ErrActionPending
	}
	if e.sel.OptionID == optionID && e.sel.Phase == OptionSelected {
		e.sel = Selection{}
	} else {
		e.sel = Selection{Phase: OptionSelected, OptionID: optionID}
	}
	v := e.commit()
	e.mu.Unlock()
	e.notify(v, SourceAction)
	return nil
}

// OpenBetForm exige uma opção selecionada e status OPEN
func (e *Engine) OpenBetForm() error {
	e.mu.Lock()
	switch {
	case e.sel.Phase != OptionSelected:
		e.mu.Unlock()
		return ErrNoSelection
	case e.ev.Status != events.StatusOpen:
		e.mu.Unlock()
		return ErrBettingClosed
	}
	e.sel.Phase = BetFormOpen
	e.sel.BetError = ""
	v := e.commit()
	e.mu.Unlock()
	e.notify(v, SourceAction)
	return nil
}

// CancelBetForm volta para a opção selecionada
func (e *Engine) CancelBetForm() {
	e.mu.Lock()
	if e.sel.Phase != BetFormOpen {
		e.mu.Unlock()
		return
	}
	e.sel.Phase = OptionSelected
	e.sel.BetError = ""
	v := e.commit()
	e.mu.Unlock()
	e.notify(v, SourceAction)
}

// SubmitBet envia o formulário. rawAmount aceita vírgulas e lixo; só dígitos contam.
// Falha volta para BetFormOpen com a mensagem; sucesso limpa a seleção.
func (e *Engine) SubmitBet(ctx context.Context, rawAmount string) error {
	amount := validate.ParsePointAmount(rawAmount)

	e.mu.Lock()
	if e.sel.Phase != BetFormOpen {
		e.mu.Unlock()
		return ErrNoSelection
	}
	optionID := e.sel.OptionID
	e.sel.Phase = Submitting
	e.sel.BetError = ""
	v := e.commit()
	e.mu.Unlock()
	e.notify(v, SourceAction)

	_, err := e.PlaceBet(ctx, optionID, amount)

	e.mu.Lock()
	if e.sel.Phase != Submitting || e.sel.OptionID != optionID {
		// navegação ou refresh trocaram o estado no meio
		e.mu.Unlock()
		return err
	}
	if err != nil {
		e.sel.Phase = BetFormOpen
		e.sel.BetError = betErrorMessage(err)
	} else {
		e.sel = Selection{}
	}
	v = e.commit()
	e.mu.Unlock()
	e.notify(v, SourceAction)
	return err
}

func betErrorMessage(err error) string {
	var ve *validate.Error
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
