package ai

import (
	"context"
	"errors"
	"time"

	"travelatlas/internal/domain"
	"travelatlas/internal/logging"
	"travelatlas/internal/observability"

	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	breakerFailureThreshold = 5
	breakerOpenTimeout      = 30 * time.Second
)

// Breaker guards a provider with a circuit breaker and a per-call timeout.
// Every provider failure, including an open breaker, is returned as
// domain.UnavailableError.
type Breaker struct {
	name    string
	next    Client
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[string]
}

// NewBreaker opens after five consecutive failures and lets a probe through
// after thirty seconds.
func NewBreaker(name string, next Client, timeout time.Duration) *Breaker {
	return newBreaker(name, next, timeout, breakerOpenTimeout)
}

func newBreaker(name string, next Client, timeout, openFor time.Duration) *Breaker {
	settings := gobreaker.Settings{
		Name:        "llm-" + name,
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// a caller giving up is not the provider's fault
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(cbName string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", cbName).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("llm circuit breaker state change")
			observability.SetBreakerState(name, to.String())
		},
	}
	return &Breaker{
		name:    name,
		next:    next,
		timeout: timeout,
		cb:      gobreaker.NewCircuitBreaker[string](settings),
	}
}

// State is the breaker state name: closed, half-open or open.
func (b *Breaker) State() string { return b.cb.State().String() }

func (b *Breaker) Complete(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := b.cb.Execute(func() (string, error) {
		callCtx := ctx
		if b.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		return b.next.Complete(callCtx, req)
	})
	if err == nil {
		observability.RecordLLMCall(b.name, "ok", time.Since(start))
		return out, nil
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		observability.RecordLLMCall(b.name, "rejected", 0)
		return "", domain.UnavailableError{Service: "ai", Err: err}
	}
	observability.RecordLLMCall(b.name, "error", time.Since(start))
	if domain.IsUnavailable(err) {
		return "", err
	}
	return "", domain.UnavailableError{Service: "ai", Err: err}
}
