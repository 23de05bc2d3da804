package feed

import "time"

// State do ciclo de vida da conexão de odds
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Status é o estado mais o backoff agendado (só em Reconnecting)
type Status struct {
	State    State
	Backoff  time.Duration
	Attempts int
}

type trigger int

const (
	trgStart trigger = iota
	trgOpened
	trgFailed
	trgClosedNormally
	trgRetry
	trgStop
)

// Policy define o backoff exponencial: base, base*2, ... até Max
type Policy struct {
	Base time.Duration
	Max  time.Duration
}

func (p Policy) delay(attempts int) time.Duration {
	d := p.Base
	for i := 0; i < attempts; i++ {
		d *= 2
		if d >= p.Max {
			return p.Max
		}
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

// next é a tabela de transições. Triggers inválidos para o estado atual não mudam nada.
func (p Policy) next(s Status, t trigger) Status {
	if t == trgStop {
		return Status{State: Disconnected}
	}
	switch s.State {
	case Disconnected:
		if t == trgStart {
			return Status{State: Connecting}
		}
	case Connecting:
		switch t {
		case trgOpened:
			return Status{State: Connected}
		case trgFailed:
			return Status{State: Reconnecting, Backoff: p.delay(s.Attempts), Attempts: s.Attempts + 1}
		}
	case Connected:
		switch t {
		case trgClosedNormally:
			return Status{State: Disconnected}
		case trgFailed:
			return Status{State: Reconnecting, Backoff: p.delay(0), Attempts: 1}
		}
	case Reconnecting:
		if t == trgRetry {
			return Status{State: Connecting, Attempts: s.Attempts}
		}
	}
	return s
}
