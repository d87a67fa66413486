package ledger

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// IDGenerator produces transaction identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random (version 4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// CounterGenerator issues "<salt>-<n>" identifiers. The salt is chosen once
// per process so ledgers hydrated from the same store in different sessions
// do not hand out the same ids.
type CounterGenerator struct {
	salt string
	n    atomic.Uint64
}

func NewCounterGenerator() *CounterGenerator {
	return NewCounterGeneratorWithSalt(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func NewCounterGeneratorWithSalt(salt string) *CounterGenerator {
	return &CounterGenerator{salt: salt}
}

func (g *CounterGenerator) NewID() string {
	return fmt.Sprintf("%s-%06d", g.salt, g.n.Add(1))
}

// NewIDGenerator maps a strategy name ("uuid" or "counter") to a generator.
func NewIDGenerator(strategy string) (IDGenerator, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", "uuid":
		return UUIDGenerator{}, nil
	case "counter":
		return NewCounterGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", strategy)
	}
}
