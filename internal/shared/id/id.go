// Package id generates the prefixed, time-sortable identifiers attached to
// runs, session events and API requests.
//
// Every identifier is a ULID rendered as "<prefix>_<ulid>", so ids sort by
// creation time and a log line shows what an id refers to.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunID identifies one accepted execution round trip.
type RunID string

// EventID identifies one published session event.
type EventID string

// RequestID identifies one API request.
type RequestID string

const (
	RunPrefix     = "run"
	EventPrefix   = "evt"
	RequestPrefix = "req"
)

// Generator produces monotonic ULIDs. Ids generated within the same
// millisecond still sort in generation order.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return NewGeneratorWithEntropy(rand.Reader)
}

// NewGeneratorWithEntropy creates a generator over a custom entropy source,
// typically a seeded reader in tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: ulid.Monotonic(entropy, 0),
		now:     time.Now,
	}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// WithPrefix creates a "<prefix>_<ulid>" string.
func (g *Generator) WithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewRunID generates a run id.
func NewRunID() RunID {
	return RunID(Default().WithPrefix(RunPrefix))
}

// NewEventID generates an event id.
func NewEventID() EventID {
	return EventID(Default().WithPrefix(EventPrefix))
}

// NewRequestID generates a request id.
func NewRequestID() RequestID {
	return RequestID(Default().WithPrefix(RequestPrefix))
}

func (id RunID) String() string     { return string(id) }
func (id EventID) String() string   { return string(id) }
func (id RequestID) String() string { return string(id) }

// Split separates a prefixed id into its prefix and ULID text.
// Unprefixed input yields an empty prefix.
func Split(s string) (prefix, raw string) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// IsValid reports whether s, with or without a prefix, carries a valid ULID.
func IsValid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Parse extracts the ULID from a prefixed or bare id.
func Parse(s string) (ulid.ULID, error) {
	_, raw := Split(s)
	return ulid.Parse(raw)
}

// Timestamp returns the creation time encoded in an id.
func Timestamp(s string) (time.Time, error) {
	parsed, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
