package game

import (
	"fmt"
	"time"
)

// Default timings of the simulated verifier.
const (
	DefaultVerificationDelay = 3 * time.Second
	DefaultVerificationStep  = 5 * time.Second
)

// Config holds the parameters both seats must agree on before playing.
type Config struct {
	// Funds available to each seat, indexed by seat.
	Funds [2]uint
	// Blinds posted by each seat before the first round.
	Blinds [2]uint
	// TurnTimeout bounds the wait for a message of the opponent. Zero
	// disables it.
	TurnTimeout time.Duration
	// VerificationDelay and VerificationStep pace the simulated verifier.
	VerificationDelay time.Duration
	VerificationStep  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Funds:             [2]uint{1000, 1000},
		VerificationDelay: DefaultVerificationDelay,
		VerificationStep:  DefaultVerificationStep,
	}
}

func (c Config) Validate() error {
	for seat := range c.Funds {
		if c.Blinds[seat] > c.Funds[seat] {
			return fmt.Errorf("blind %d of seat %d exceeds its funds %d", c.Blinds[seat], seat, c.Funds[seat])
		}
	}
	if c.TurnTimeout < 0 || c.VerificationDelay < 0 || c.VerificationStep < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}
