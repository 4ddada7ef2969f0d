package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests")
)

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

var stateNames = [...]string{
	StateClosed:   "closed",
	StateHalfOpen: "half-open",
	StateOpen:     "open",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// MarshalText renders the state name in JSON.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Settings configures a Breaker. Zero fields take the defaults noted.
type Settings struct {
	// MaxRequests bounds half-open probes and is the success streak that
	// closes the breaker again. Default 1.
	MaxRequests uint32
	// Interval clears closed-state counts periodically. Default 60s.
	Interval time.Duration
	// Timeout is how long the breaker stays open. Default 60s.
	Timeout time.Duration
	// ReadyToTrip decides, after a closed-state failure, whether to open.
	// Default: more than five consecutive failures.
	ReadyToTrip func(counts Counts) bool
	// IsSuccessful classifies a returned error. Default err == nil.
	IsSuccessful func(err error) bool
	// OnStateChange observes transitions. It runs with the breaker locked
	// and must not call back into it.
	OnStateChange func(name string, from State, to State)
}

func (s Settings) withDefaults() Settings {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = time.Minute
	}
	if s.ReadyToTrip == nil {
		s.ReadyToTrip = func(c Counts) bool { return c.ConsecutiveFailures > 5 }
	}
	if s.IsSuccessful == nil {
		s.IsSuccessful = func(err error) bool { return err == nil }
	}
	return s
}

// Counts are the statistics of one generation.
type Counts struct {
	Requests             uint32 `json:"requests"`
	TotalSuccesses       uint32 `json:"totalSuccesses"`
	TotalFailures        uint32 `json:"totalFailures"`
	ConsecutiveSuccesses uint32 `json:"consecutiveSuccesses"`
	ConsecutiveFailures  uint32 `json:"consecutiveFailures"`
}

func (c *Counts) request() { c.Requests++ }

func (c *Counts) success() {
	c.TotalSuccesses++
	c.ConsecutiveSuccesses++
	c.ConsecutiveFailures = 0
}

func (c *Counts) failure() {
	c.TotalFailures++
	c.ConsecutiveFailures++
	c.ConsecutiveSuccesses = 0
}

// Snapshot is a point-in-time view of a breaker.
type Snapshot struct {
	Name   string `json:"name"`
	State  State  `json:"state"`
	Counts Counts `json:"counts"`
}

// Breaker guards calls to one remote dependency.
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu         sync.Mutex
	state      State
	generation uint64
	counts     Counts
	expiry     time.Time
}

// New creates a closed breaker.
func New(name string, settings Settings) *Breaker {
	b := &Breaker{
		name:     name,
		settings: settings.withDefaults(),
		now:      time.Now,
	}
	b.expiry = b.now().Add(b.settings.Interval)
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, applying any due timeout.
func (b *Breaker) State() State {
	return b.Snapshot().State
}

// Counts returns the counts of the current generation.
func (b *Breaker) Counts() Counts {
	return b.Snapshot().Counts
}

// Snapshot returns state and counts read under one lock.
func (b *Breaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, _ := b.advance(b.now())
	return Snapshot{Name: b.name, State: state, Counts: b.counts}
}

// Allow reports whether a call would be admitted now, without consuming a
// half-open probe.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, _ := b.advance(b.now())
	return b.admit(state)
}

// Execute runs fn if the breaker admits it and records the result.
// A panic in fn counts as a failure and is re-raised.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	generation, err := b.begin()
	if err != nil {
		var zero T
		return zero, err
	}

	completed := false
	defer func() {
		if !completed {
			b.finish(generation, false)
		}
	}()

	result, err := fn()
	completed = true
	b.finish(generation, b.settings.IsSuccessful(err))
	return result, err
}

func (b *Breaker) admit(state State) error {
	switch state {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.counts.Requests >= b.settings.MaxRequests {
			return ErrTooManyRequests
		}
	}
	return nil
}

func (b *Breaker) begin() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, generation := b.advance(b.now())
	if err := b.admit(state); err != nil {
		return generation, err
	}
	b.counts.request()
	return generation, nil
}

// finish records a result unless the generation moved on while fn ran.
func (b *Breaker) finish(generation uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	state, current := b.advance(now)
	if current != generation {
		return
	}

	if success {
		b.counts.success()
		if state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.MaxRequests {
			b.transition(StateClosed, now)
		}
		return
	}

	switch state {
	case StateClosed:
		b.counts.failure()
		if b.settings.ReadyToTrip(b.counts) {
			b.transition(StateOpen, now)
		}
	case StateHalfOpen:
		b.transition(StateOpen, now)
	}
}

// advance applies time-driven transitions. Callers hold mu.
func (b *Breaker) advance(now time.Time) (State, uint64) {
	switch {
	case b.state == StateClosed && !b.expiry.IsZero() && now.After(b.expiry):
		b.reset(now)
	case b.state == StateOpen && now.After(b.expiry):
		b.transition(StateHalfOpen, now)
	}
	return b.state, b.generation
}

func (b *Breaker) transition(to State, now time.Time) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	b.reset(now)

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}

// reset starts a new generation with cleared counts.
func (b *Breaker) reset(now time.Time) {
	b.generation++
	b.counts = Counts{}

	switch b.state {
	case StateClosed:
		b.expiry = now.Add(b.settings.Interval)
	case StateOpen:
		b.expiry = now.Add(b.settings.Timeout)
	default:
		b.expiry = time.Time{}
	}
}
