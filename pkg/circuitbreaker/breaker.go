package circuitbreaker

import (
	"fmt"
	"sync"
	"time"
)

type Settings struct {
	Name        string
	MaxFailures int
	Timeout     time.Duration
}

// CircuitBreaker guards a best-effort collaborator call. After
// MaxFailures consecutive errors the breaker opens and calls fail fast
// until Timeout elapses, then one probe call is allowed through.
type CircuitBreaker struct {
	name        string
	maxFailures int
	timeout     time.Duration
	failures    int
	lastFailure time.Time
	state       string
	mu          sync.RWMutex
}

func NewCircuitBreaker(settings Settings) *CircuitBreaker {
	if settings.MaxFailures <= 0 {
		settings.MaxFailures = 5
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{
		name:        settings.Name,
		maxFailures: settings.MaxFailures,
		timeout:     settings.Timeout,
		state:       "closed",
	}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.RLock()
	if cb.state == "open" {
		if time.Since(cb.lastFailure) > cb.timeout {
			cb.mu.RUnlock()
			cb.mu.Lock()
			cb.state = "half-open"
			cb.mu.Unlock()
		} else {
			cb.mu.RUnlock()
			return fmt.Errorf("circuit breaker %s is open", cb.name)
		}
	} else {
		cb.mu.RUnlock()
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.failures >= cb.maxFailures {
			cb.state = "open"
		}
		return err
	}

	if cb.state == "half-open" {
		cb.state = "closed"
	}
	cb.failures = 0
	return nil
}

// State returns the current breaker state, for metrics.
func (cb *CircuitBreaker) State() string {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.state
}
