package idgen

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/nrednav/cuid2"
)

const DefaultCUID2Length = 24

// UUIDGenerator yields random v4 UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate uuid: %w", err)
	}
	return id.String(), nil
}

func (UUIDGenerator) Validate(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid uuid: %w", err)
	}
	return nil
}

// CUID2Generator yields collision-resistant IDs of a fixed length.
type CUID2Generator struct {
	length   int
	generate func() string
}

// NewCUID2Generator accepts lengths between 2 and 32.
func NewCUID2Generator(length int) (*CUID2Generator, error) {
	if length < 2 || length > 32 {
		return nil, fmt.Errorf("cuid2 length must be between 2 and 32, got %d", length)
	}
	gen, err := cuid2.Init(cuid2.WithLength(length))
	if err != nil {
		return nil, fmt.Errorf("failed to init cuid2: %w", err)
	}
	return &CUID2Generator{length: length, generate: gen}, nil
}

func (g *CUID2Generator) Generate() (string, error) {
	return g.generate(), nil
}

func (g *CUID2Generator) Validate(id string) error {
	if len(id) != g.length || !cuid2.IsCuid(id) {
		return fmt.Errorf("invalid cuid2: %q", id)
	}
	return nil
}
