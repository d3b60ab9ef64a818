package gateway

import (
	stderrors "errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned while the gateway is considered down.
var ErrBreakerOpen = stderrors.New("gateway circuit breaker is open")

// BreakerState is the position of the breaker.
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig controls when the breaker trips. A FailureThreshold of zero
// disables the breaker.
type BreakerConfig struct {
	FailureThreshold int
	OpenTimeout      time.Duration
}

// DefaultBreakerConfig trips after five consecutive transport failures and
// lets a trial call through after thirty seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// Breaker counts consecutive transport failures. Business failures reported
// inside a well-formed gateway reply count as successes here.
type Breaker struct {
	config   BreakerConfig
	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
	probing  bool
	now      func() time.Time
}

func NewBreaker(config BreakerConfig) *Breaker {
	return &Breaker{config: config, state: BreakerClosed, now: time.Now}
}

// Allow reports whether a call may proceed. In half-open state a single trial call
// is let through at a time.
func (b *Breaker) Allow() error {
	if b.config.FailureThreshold <= 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.config.OpenTimeout {
			return ErrBreakerOpen
		}
		b.state = BreakerHalfOpen
		b.probing = true
		return nil
	case BreakerHalfOpen:
		if b.probing {
			return ErrBreakerOpen
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

// Record feeds the outcome of an allowed call back into the breaker.
func (b *Breaker) Record(success bool) {
	if b.config.FailureThreshold <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
	if success {
		b.failures = 0
		b.state = BreakerClosed
		return
	}

	b.failures++
	if b.state == BreakerHalfOpen || b.failures >= b.config.FailureThreshold {
		b.state = BreakerOpen
		b.openedAt = b.now()
	}
}

// Release ends an allowed call without counting it either way. It is used
// when the caller gave up before the gateway answered.
func (b *Breaker) Release() {
	if b.config.FailureThreshold <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.probing = false
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func isBreakerOpen(err error) bool {
	return stderrors.Is(err, ErrBreakerOpen)
}
