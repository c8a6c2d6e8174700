package router

import (
	"github.com/zen-systems/cascade/pkg/config"
)

// Selector maps a complexity tier to its model profile. The table is static
// for the process lifetime; a gap for a defined tier is a startup failure
// caught by NewSelector, never a runtime error path.
type Selector struct {
	tiers map[config.Tier]config.Profile
}

// NewSelector builds a selector and verifies every defined tier has a
// profile registered.
func NewSelector(tiers map[config.Tier]config.Profile) (*Selector, error) {
	for _, tier := range config.Tiers() {
		if _, ok := tiers[tier]; !ok {
			return nil, &config.ConfigError{
				Field:  "tiers." + string(tier),
				Reason: "no profile registered",
			}
		}
	}
	table := make(map[config.Tier]config.Profile, len(tiers))
	for tier, profile := range tiers {
		table[tier] = profile
	}
	return &Selector{tiers: table}, nil
}

// Select returns the profile for a tier.
func (s *Selector) Select(tier config.Tier) (config.Profile, error) {
	profile, ok := s.tiers[tier]
	if !ok {
		return config.Profile{}, &config.ConfigError{
			Field:  "tiers." + string(tier),
			Reason: "no profile registered",
		}
	}
	return profile, nil
}

// Profiles returns the full tier table, for display surfaces.
func (s *Selector) Profiles() map[config.Tier]config.Profile {
	out := make(map[config.Tier]config.Profile, len(s.tiers))
	for tier, profile := range s.tiers {
		out[tier] = profile
	}
	return out
}
