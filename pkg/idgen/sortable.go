package idgen

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/segmentio/ksuid"
)

// ULIDGenerator yields lexicographically sortable IDs. Monotonic entropy
// keeps IDs minted in the same millisecond in creation order.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDGenerator) Generate() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate ulid: %w", err)
	}
	return id.String(), nil
}

func (g *ULIDGenerator) Validate(id string) error {
	if _, err := ulid.ParseStrict(id); err != nil {
		return fmt.Errorf("invalid ulid: %w", err)
	}
	return nil
}

// KSUIDGenerator yields 27-char K-sortable IDs.
type KSUIDGenerator struct{}

func (KSUIDGenerator) Generate() (string, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate ksuid: %w", err)
	}
	return id.String(), nil
}

func (KSUIDGenerator) Validate(id string) error {
	if _, err := ksuid.Parse(id); err != nil {
		return fmt.Errorf("invalid ksuid: %w", err)
	}
	return nil
}
