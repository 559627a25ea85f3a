package circuitbreaker

import (
	"fmt"
	"sync"
	"time"
)

type state string

const (
	stateClosed   state = "closed"
	stateOpen     state = "open"
	stateHalfOpen state = "half-open"
)

// Settings configures a breaker. FailureThreshold consecutive failures
// open the circuit; after Timeout one probe call is allowed through.
type Settings struct {
	Name             string
	FailureThreshold int
	Timeout          time.Duration
}

type CircuitBreaker struct {
	name             string
	failureThreshold int
	timeout          time.Duration

	mu          sync.Mutex
	state       state
	failures    int
	lastFailure time.Time
}

func New(settings Settings) *CircuitBreaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{
		name:             settings.Name,
		failureThreshold: settings.FailureThreshold,
		timeout:          settings.Timeout,
		state:            stateClosed,
	}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		cb.lastFailure = time.Now()
		if cb.failures >= cb.failureThreshold {
			cb.state = stateOpen
		}
		return err
	}

	cb.state = stateClosed
	cb.failures = 0
	return nil
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != stateOpen {
		return nil
	}
	if time.Since(cb.lastFailure) > cb.timeout {
		cb.state = stateHalfOpen
		return nil
	}
	return fmt.Errorf("circuit breaker %s is open", cb.name)
}
