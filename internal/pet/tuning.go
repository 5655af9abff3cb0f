package pet

import (
	"fmt"

	"git.home.luguber.info/inful/companion/internal/foundation/errors"
)

// Epsilon is how close to its maximum a stat must be to count as saturated.
const Epsilon = 0.1

// Tuning holds the balancing constants of the resource model.
type Tuning struct {
	ExperiencePerLevel float64 `yaml:"experience_per_level" toml:"experience_per_level" json:"experience_per_level"`

	BaseMaxFullness      float64 `yaml:"base_max_fullness" toml:"base_max_fullness" json:"base_max_fullness"`
	BaseMaxHappiness     float64 `yaml:"base_max_happiness" toml:"base_max_happiness" json:"base_max_happiness"`
	MaxFullnessPerLevel  float64 `yaml:"max_fullness_per_level" toml:"max_fullness_per_level" json:"max_fullness_per_level"`
	MaxHappinessPerLevel float64 `yaml:"max_happiness_per_level" toml:"max_happiness_per_level" json:"max_happiness_per_level"`

	// Decay rates are units lost per elapsed second.
	FullnessDecayPerSecond  float64 `yaml:"fullness_decay_per_second" toml:"fullness_decay_per_second" json:"fullness_decay_per_second"`
	HappinessDecayPerSecond float64 `yaml:"happiness_decay_per_second" toml:"happiness_decay_per_second" json:"happiness_decay_per_second"`

	FeedFullness   float64 `yaml:"feed_fullness" toml:"feed_fullness" json:"feed_fullness"`
	FeedExperience float64 `yaml:"feed_experience" toml:"feed_experience" json:"feed_experience"`
	PetHappiness   float64 `yaml:"pet_happiness" toml:"pet_happiness" json:"pet_happiness"`
	PetExperience  float64 `yaml:"pet_experience" toml:"pet_experience" json:"pet_experience"`
}

// DefaultTuning returns the stock balancing.
func DefaultTuning() Tuning {
	return Tuning{
		ExperiencePerLevel:      100,
		BaseMaxFullness:         100,
		BaseMaxHappiness:        100,
		MaxFullnessPerLevel:     10,
		MaxHappinessPerLevel:    10,
		FullnessDecayPerSecond:  0.01,
		HappinessDecayPerSecond: 0.02,
		FeedFullness:            20,
		FeedExperience:          10,
		PetHappiness:            10,
		PetExperience:           5,
	}
}

type tuningField struct {
	name  string
	value float64
}

// Validate checks that the tuning describes a usable model.
func (t Tuning) Validate() error {
	positive := []tuningField{
		{"experience_per_level", t.ExperiencePerLevel},
		{"base_max_fullness", t.BaseMaxFullness},
		{"base_max_happiness", t.BaseMaxHappiness},
		{"feed_fullness", t.FeedFullness},
		{"pet_happiness", t.PetHappiness},
	}
	for _, f := range positive {
		// Written as a negation so NaN is rejected too.
		if !(f.value > 0) {
			return invalidField(f, "must be > 0")
		}
	}

	nonNegative := []tuningField{
		{"max_fullness_per_level", t.MaxFullnessPerLevel},
		{"max_happiness_per_level", t.MaxHappinessPerLevel},
		{"fullness_decay_per_second", t.FullnessDecayPerSecond},
		{"happiness_decay_per_second", t.HappinessDecayPerSecond},
		{"feed_experience", t.FeedExperience},
		{"pet_experience", t.PetExperience},
	}
	for _, f := range nonNegative {
		if !(f.value >= 0) {
			return invalidField(f, "must be >= 0")
		}
	}
	return nil
}

func invalidField(f tuningField, reason string) error {
	return errors.ValidationError(fmt.Sprintf("pet.%s %s", f.name, reason)).
		WithContext("field", f.name).
		WithContext("value", f.value).
		Build()
}
