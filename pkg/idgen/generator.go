// Package idgen produces the identifiers used across services: short
// public meeting codes and time-sortable record IDs.
package idgen

import "fmt"

// Generator produces and validates one kind of identifier.
type Generator interface {
	Generate() (string, error)
	Validate(id string) error
}

const (
	StrategyNanoID = "nanoid"
	StrategyULID   = "ulid"
	StrategyKSUID  = "ksuid"
	StrategyUUID   = "uuid"
	StrategyCUID2  = "cuid2"
)

// Config selects a strategy. Size and Alphabet apply to nanoid, Size to cuid2.
type Config struct {
	Strategy string `mapstructure:"strategy"`
	Size     int    `mapstructure:"size"`
	Alphabet string `mapstructure:"alphabet"`
}

// New builds the generator named by cfg.Strategy.
func New(cfg Config) (Generator, error) {
	switch cfg.Strategy {
	case StrategyNanoID:
		size := cfg.Size
		if size == 0 {
			size = MeetingIDSize
		}
		alphabet := cfg.Alphabet
		if alphabet == "" {
			alphabet = DefaultNanoIDAlphabet
		}
		return NewNanoIDGenerator(size, alphabet)
	case StrategyULID, "":
		return NewULIDGenerator(), nil
	case StrategyKSUID:
		return KSUIDGenerator{}, nil
	case StrategyUUID:
		return UUIDGenerator{}, nil
	case StrategyCUID2:
		size := cfg.Size
		if size == 0 {
			size = DefaultCUID2Length
		}
		return NewCUID2Generator(size)
	default:
		return nil, fmt.Errorf("unknown id strategy: %s", cfg.Strategy)
	}
}
