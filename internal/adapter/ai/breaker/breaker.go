// Package breaker wraps a completion provider with a circuit breaker so a
// failing upstream is not hammered by every incoming request.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fairyhunter13/resume-matcher/internal/adapter/observability"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// ErrOpen is wrapped in the ProviderError returned while the circuit is open.
var ErrOpen = errors.New("circuit breaker open")

// State is the circuit state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cooldown has passed.
	StateOpen
	// StateHalfOpen lets a single trial call through.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Provider is the wrapped backend.
type Provider interface {
	domain.CompletionProvider
	Ping(ctx context.Context) error
}

// Breaker is a Provider that opens after MaxFailures consecutive upstream
// failures and allows one trial call once Cooldown has elapsed.
type Breaker struct {
	next        Provider
	name        string
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool
}

// New wraps next. name labels logs and the state gauge.
func New(next Provider, name string, maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures < 1 {
		maxFailures = 1
	}
	b := &Breaker{next: next, name: name, maxFailures: maxFailures, cooldown: cooldown, now: time.Now}
	observability.SetBreakerState(name, int(StateClosed))
	return b
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Complete forwards req unless the circuit is open.
func (b *Breaker) Complete(ctx domain.Context, req domain.CompletionRequest) (string, error) {
	if !b.allow() {
		return "", &domain.ProviderError{StatusCode: 503, Err: ErrOpen}
	}
	out, err := b.next.Complete(ctx, req)
	b.record(ctx, err)
	return out, err
}

// Ping probes the wrapped provider directly; an open circuit is reported as
// not ready.
func (b *Breaker) Ping(ctx context.Context) error {
	b.mu.Lock()
	open := b.state == StateOpen && b.now().Sub(b.openedAt) < b.cooldown
	b.mu.Unlock()
	if open {
		return ErrOpen
	}
	return b.next.Ping(ctx)
}

func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.setState(StateHalfOpen)
		b.trial = true
		return true
	case StateHalfOpen:
		if b.trial {
			return false
		}
		b.trial = true
		return true
	}
	return true
}

// record counts only failures that say the upstream is unhealthy. Caller
// cancellations and 4xx responses leave the circuit alone.
func (b *Breaker) record(ctx context.Context, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trial = false

	var pe *domain.ProviderError
	unhealthy := err != nil && errors.As(err, &pe) && pe.Retryable() && ctx.Err() == nil
	if !unhealthy {
		if err == nil || b.state == StateHalfOpen {
			b.failures = 0
			b.setState(StateClosed)
		}
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.maxFailures {
		b.openedAt = b.now()
		b.setState(StateOpen)
		slog.Warn("completion provider circuit opened",
			slog.String("provider", b.name),
			slog.Int("consecutive_failures", b.failures),
			slog.Duration("cooldown", b.cooldown))
	}
}

func (b *Breaker) setState(s State) {
	if b.state == s {
		return
	}
	b.state = s
	observability.SetBreakerState(b.name, int(s))
}
