package analyze

import "fmt"

// Tier is one rating band: mean response times strictly below Below
// minutes (and not matched by an earlier tier) earn Label.
type Tier struct {
	Below float64 `json:"below" yaml:"below"`
	Label string  `json:"label" yaml:"label"`
}

// Thresholds maps a mean response time to a qualitative rating. Tiers are
// strict upper bounds in ascending order; a mean at or above the last
// bound earns Worst.
//
// These values are presentation policy. The defaults mirror the original
// operator UI; a different operational context should supply its own via
// configuration.
type Thresholds struct {
	Tiers []Tier `json:"tiers" yaml:"tiers"`
	Worst string `json:"worst" yaml:"worst"`
}

// DefaultThresholds returns the stock 5/10/15/30-minute bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Tiers: []Tier{
			{Below: 5, Label: "excellent"},
			{Below: 10, Label: "good"},
			{Below: 15, Label: "fair"},
			{Below: 30, Label: "slow"},
		},
		Worst: "critical",
	}
}

// Rate returns the rating label for a mean response time in minutes.
func (t Thresholds) Rate(meanMinutes float64) string {
	for _, tier := range t.Tiers {
		if meanMinutes < tier.Below {
			return tier.Label
		}
	}
	return t.Worst
}

// Validate checks the thresholds are usable: at least one tier, strictly
// ascending positive bounds, no empty labels.
func (t Thresholds) Validate() error {
	if len(t.Tiers) == 0 {
		return fmt.Errorf("thresholds: at least one tier is required")
	}
	if t.Worst == "" {
		return fmt.Errorf("thresholds: worst label must not be empty")
	}

	prev := 0.0
	for i, tier := range t.Tiers {
		if tier.Label == "" {
			return fmt.Errorf("thresholds: tier %d has an empty label", i)
		}
		if tier.Below <= prev {
			return fmt.Errorf("thresholds: tier bounds must be strictly ascending and positive, got %v after %v", tier.Below, prev)
		}
		prev = tier.Below
	}
	return nil
}
