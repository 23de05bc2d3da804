package eventlist

import "context"

type Source string

const (
	SourceScroll Source = "scroll"
	SourceWheel  Source = "wheel"
	SourceTouch  Source = "touchmove"
)

// Viewport descreve a posição de scroll no momento do sinal
type Viewport struct {
	ScrollTop      float64
	ViewportHeight float64
	DocumentHeight float64
	DeltaY         float64 // só para wheel; <= 0 é ignorado
}

func (v Viewport) distanceToBottom() float64 {
	return v.DocumentHeight - (v.ScrollTop + v.ViewportHeight)
}

// Scroll trata sinais de scroll/wheel/touch. Devolve true se uma busca foi disparada.
func (l *Loader) Scroll(ctx context.Context, src Source, v Viewport) bool {
	if src == SourceWheel && v.DeltaY <= 0 {
		return false
	}

	l.mu.Lock()
	l.allowAuto = true
	if l.loading || !l.hasMore {
		l.mu.Unlock()
		return false
	}
	now := l.opts.Now()
	if !l.lastAuto.IsZero() && now.Sub(l.lastAuto) < l.opts.Cooldown {
		l.mu.Unlock()
		return false
	}
	if v.distanceToBottom() > l.opts.NearBottom {
		l.mu.Unlock()
		return false
	}

	if l.cursor == nil {
		if v.ScrollTop <= l.lastScrollTop+1 {
			l.bounce++
		} else {
			l.bounce = 0
		}
		l.lastScrollTop = v.ScrollTop
		if l.bounce < l.opts.BounceTicks {
			l.mu.Unlock()
			return false
		}
	}
	l.lastAuto = now
	l.mu.Unlock()

	return l.fetchPage(ctx, false)
}

// SentinelVisible é o gatilho do sentinela no fim da lista. Só vale depois do
// primeiro scroll do usuário, para não paginar uma lista curta sozinha.
func (l *Loader) SentinelVisible(ctx context.Context) bool {
	l.mu.Lock()
	blocked := !l.hasMore || !l.allowAuto || l.loading || (len(l.items) == 0 && l.cursor == nil)
	l.mu.Unlock()
	if blocked {
		return false
	}
	return l.fetchPage(ctx, false)
}
