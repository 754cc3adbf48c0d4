package similarity

import (
	"fmt"

	"github.com/scrypster/lookalike/pkg/types"
)

// Config is the complete tunable surface of the comparison core.
type Config struct {
	// StrongThreshold is the minimum total points for a strong pair (default: 5).
	StrongThreshold int

	// FuzzyThreshold is the minimum ratio for a fuzzy field to count (default: 0.8).
	FuzzyThreshold float64

	// ProximityKm is the exclusive distance under which two locations count (default: 10).
	ProximityKm float64
}

// DefaultConfig returns a Config with the standard thresholds.
func DefaultConfig() Config {
	return Config{
		StrongThreshold: 5,
		FuzzyThreshold:  0.8,
		ProximityKm:     10,
	}
}

// Validate checks if the config is valid.
func (c Config) Validate() error {
	if c.StrongThreshold < types.MinWeakPoints {
		return fmt.Errorf("StrongThreshold must be >= %d, got %d", types.MinWeakPoints, c.StrongThreshold)
	}
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("FuzzyThreshold must be in (0, 1], got %v", c.FuzzyThreshold)
	}
	if c.ProximityKm <= 0 {
		return fmt.Errorf("ProximityKm must be > 0, got %v", c.ProximityKm)
	}
	return nil
}
