package domain

import (
	"errors"
	"fmt"
)

// MaxSeverity is the highest severity tier number.
const MaxSeverity = 5

// SeverityTier pairs an age-fraction bracket with the intensity a cohort in
// that bracket must exceed to die.
type SeverityTier struct {
	Number             uint8
	MinAgeFrac         float64
	MaxAgeFrac         float64
	MortalityThreshold float64
}

// SeverityTable lists tiers from the highest number down to 1. The brackets
// tile [0, 1]: the first starts at 0, each starts where the previous one ends
// and tier 1 ends at 1.
type SeverityTable []SeverityTier

// Validate checks numbering and contiguous coverage of [0, 1].
func (t SeverityTable) Validate() error {
	if len(t) == 0 {
		return errors.New("no severities defined")
	}
	first := t[0].Number
	if first < 1 || first > MaxSeverity {
		return fmt.Errorf("severity number %d: must be between 1 and %d", first, MaxSeverity)
	}
	if len(t) != int(first) {
		return fmt.Errorf("severity numbers must run from %d down to 1, got %d tiers", first, len(t))
	}
	for i, tier := range t {
		want := first - uint8(i)
		if tier.Number != want {
			return fmt.Errorf("expected severity number %d, got %d", want, tier.Number)
		}
		if tier.MinAgeFrac > tier.MaxAgeFrac {
			return fmt.Errorf("severity %d: minimum age %v exceeds maximum age %v", tier.Number, tier.MinAgeFrac, tier.MaxAgeFrac)
		}
		if tier.MortalityThreshold < 0 || tier.MortalityThreshold > 1 {
			return fmt.Errorf("severity %d: mortality threshold %v must be between 0 and 1", tier.Number, tier.MortalityThreshold)
		}
		if i == 0 {
			if tier.MinAgeFrac != 0 {
				return fmt.Errorf("severity %d: minimum age must be 0%% for the first severity", tier.Number)
			}
		} else if tier.MinAgeFrac != t[i-1].MaxAgeFrac {
			return fmt.Errorf("severity %d: minimum age %v must equal the maximum age (%v) of the preceding severity",
				tier.Number, tier.MinAgeFrac, t[i-1].MaxAgeFrac)
		}
	}
	if last := t[len(t)-1]; last.MaxAgeFrac != 1 {
		return fmt.Errorf("severity %d: maximum age must be 100%% for the last severity", last.Number)
	}
	return nil
}

// Lookup returns the first tier whose bracket contains ageFrac. Fractions
// outside [0, 1] match nothing.
func (t SeverityTable) Lookup(ageFrac float64) (SeverityTier, bool) {
	for _, tier := range t {
		if ageFrac >= tier.MinAgeFrac && ageFrac <= tier.MaxAgeFrac {
			return tier, true
		}
	}
	return SeverityTier{}, false
}
