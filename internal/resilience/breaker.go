// Package resilience provides circuit breakers for the remote collaborators
// used while scoring (translation and language detection providers).
//
// A breaker opens after a run of consecutive failures and rejects calls with
// domain.ErrCircuitOpen until its cooldown elapses. It then admits a bounded
// number of probe calls: a successful probe closes it, a failed probe opens it
// again.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/helixir/name-similarity-service/internal/domain"
)

// State is the state of a circuit breaker.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

// String returns the state name used in logs and metric labels.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config tunes a breaker.
type Config struct {
	// ConsecutiveThreshold is the number of consecutive failures that opens
	// the breaker.
	ConsecutiveThreshold int

	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration

	// HalfOpenProbes is the number of concurrent probe calls admitted while
	// half-open.
	HalfOpenProbes int
}

// StateChangeFunc is called after every state transition, outside the
// breaker's lock.
type StateChangeFunc func(name string, from, to State)

// Breaker is a consecutive-failure circuit breaker. It is safe for
// concurrent use.
type Breaker struct {
	name          string
	cfg           Config
	onStateChange StateChangeFunc
	now           func() time.Time

	mu         sync.Mutex
	state      State
	consecFail int
	nextProbe  time.Time
	inFlight   int
}

// NewBreaker creates a closed breaker. Zero config values fall back to a
// threshold of 5, a 60s cooldown and a single probe.
func NewBreaker(name string, cfg Config, onStateChange StateChangeFunc) *Breaker {
	if cfg.ConsecutiveThreshold <= 0 {
		cfg.ConsecutiveThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = 1
	}
	return &Breaker{
		name:          name,
		cfg:           cfg,
		onStateChange: onStateChange,
		now:           time.Now,
		state:         StateClosed,
	}
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state. An open breaker whose cooldown has
// elapsed reports StateHalfOpen.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && !b.now().Before(b.nextProbe) {
		return StateHalfOpen
	}
	return b.state
}

// Allow reserves a call slot. It returns domain.ErrCircuitOpen when the call
// must be rejected. Every successful Allow must be followed by exactly one
// Record.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	var transition func()

	switch b.state {
	case StateOpen:
		if b.now().Before(b.nextProbe) {
			b.mu.Unlock()
			return fmt.Errorf("%w: %s", domain.ErrCircuitOpen, b.name)
		}
		transition = b.setStateLocked(StateHalfOpen)
		b.inFlight = 1
	case StateHalfOpen:
		if b.inFlight >= b.cfg.HalfOpenProbes {
			b.mu.Unlock()
			return fmt.Errorf("%w: %s", domain.ErrCircuitOpen, b.name)
		}
		b.inFlight++
	}
	b.mu.Unlock()

	if transition != nil {
		transition()
	}
	return nil
}

// Record reports the outcome of a call admitted by Allow.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	var transition func()

	if b.state == StateHalfOpen && b.inFlight > 0 {
		b.inFlight--
	}

	if err == nil {
		b.consecFail = 0
		if b.state == StateHalfOpen {
			transition = b.setStateLocked(StateClosed)
		}
	} else {
		b.consecFail++
		switch b.state {
		case StateHalfOpen:
			transition = b.tripLocked()
		case StateClosed:
			if b.consecFail >= b.cfg.ConsecutiveThreshold {
				transition = b.tripLocked()
			}
		}
	}
	b.mu.Unlock()

	if transition != nil {
		transition()
	}
}

// Execute runs fn under the breaker. Context cancellation by the caller is
// not counted as a collaborator failure.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.Allow(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && errors.Is(err, context.Canceled) && ctx.Err() != nil {
		b.Record(nil)
		return err
	}
	b.Record(err)
	return err
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	b.consecFail = 0
	b.inFlight = 0
	transition := b.setStateLocked(StateClosed)
	b.mu.Unlock()

	if transition != nil {
		transition()
	}
}

func (b *Breaker) tripLocked() func() {
	b.nextProbe = b.now().Add(b.cfg.Cooldown)
	b.inFlight = 0
	return b.setStateLocked(StateOpen)
}

// setStateLocked changes state and returns the notification to run once the
// lock is released, or nil when nothing changed.
func (b *Breaker) setStateLocked(to State) func() {
	from := b.state
	if from == to {
		return nil
	}
	b.state = to
	if b.onStateChange == nil {
		return nil
	}
	name, cb := b.name, b.onStateChange
	return func() { cb(name, from, to) }
}
