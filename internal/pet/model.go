package pet

import (
	"math"
	"time"
)

// Initial returns the state of a freshly adopted companion: no experience,
// both stats at their level-0 maxima.
func (t Tuning) Initial() State {
	return State{
		Experience: 0,
		Fullness:   t.MaxFullness(0),
		Happiness:  t.MaxHappiness(0),
	}
}

// LevelOf returns floor(exp / ExperiencePerLevel), capped at MaxLevel.
func (t Tuning) LevelOf(exp float64) int {
	if exp <= 0 || math.IsNaN(exp) {
		return 0
	}
	level := math.Floor(exp / t.ExperiencePerLevel)
	if level >= MaxLevel {
		return MaxLevel
	}
	return int(level)
}

// RestExperience is the progress into the current level.
func (t Tuning) RestExperience(exp float64) float64 {
	if exp <= 0 {
		return 0
	}
	return math.Mod(exp, t.ExperiencePerLevel)
}

func (t Tuning) MaxFullness(level int) float64 {
	return t.BaseMaxFullness + float64(level)*t.MaxFullnessPerLevel
}

func (t Tuning) MaxHappiness(level int) float64 {
	return t.BaseMaxHappiness + float64(level)*t.MaxHappinessPerLevel
}

// Clamp limits v to [0, limit].
func Clamp(v, limit float64) float64 {
	return math.Min(limit, math.Max(0, v))
}

// Normalize re-clamps both stats against the maxima of the state's level.
func (t Tuning) Normalize(s State) State {
	level := t.LevelOf(s.Experience)
	s.Fullness = Clamp(s.Fullness, t.MaxFullness(level))
	s.Happiness = Clamp(s.Happiness, t.MaxHappiness(level))
	return s
}

// ApplyDecay drains both stats linearly for the elapsed time. Negative
// elapsed time (clock skew) applies no decay.
func (t Tuning) ApplyDecay(s State, elapsed time.Duration) State {
	seconds := math.Max(0, elapsed.Seconds())
	s.Fullness -= t.FullnessDecayPerSecond * seconds
	s.Happiness -= t.HappinessDecayPerSecond * seconds
	return t.Normalize(s)
}

// Rehydrate catches a loaded state up with the real time that passed since
// it was saved.
func (t Tuning) Rehydrate(s State, savedAt, now time.Time) State {
	return t.ApplyDecay(s, now.Sub(savedAt))
}

// Feed spends one can to raise fullness. A companion that is already full is
// checked before the can supply.
func (t Tuning) Feed(s State, cans int) (State, int, FeedOutcome) {
	limit := t.MaxFullness(t.LevelOf(s.Experience))
	if limit-s.Fullness < Epsilon {
		return s, cans, FeedAlreadyFull
	}
	if cans <= 0 {
		return s, cans, FeedNoResource
	}
	s.Fullness = Clamp(s.Fullness+t.FeedFullness, limit)
	s.Experience += t.FeedExperience
	return t.Normalize(s), cans - 1, Fed
}

// Pet raises happiness. It costs nothing.
func (t Tuning) Pet(s State) (State, PetOutcome) {
	limit := t.MaxHappiness(t.LevelOf(s.Experience))
	if limit-s.Happiness < Epsilon {
		return s, PetAlreadySatisfied
	}
	s.Happiness = Clamp(s.Happiness+t.PetHappiness, limit)
	s.Experience += t.PetExperience
	return t.Normalize(s), Petted
}

// View is a display-ready summary of a state.
type View struct {
	Level              int     `json:"level"`
	Experience         float64 `json:"experience"`
	RestExperience     float64 `json:"rest_experience"`
	ExperiencePerLevel float64 `json:"experience_per_level"`
	Fullness           float64 `json:"fullness"`
	MaxFullness        float64 `json:"max_fullness"`
	FullnessPercent    int     `json:"fullness_percent"`
	Happiness          float64 `json:"happiness"`
	MaxHappiness       float64 `json:"max_happiness"`
	HappinessPercent   int     `json:"happiness_percent"`
	Cans               int     `json:"cans"`
}

// Describe builds the View for s.
func (t Tuning) Describe(s State, cans int) View {
	level := t.LevelOf(s.Experience)
	maxF, maxH := t.MaxFullness(level), t.MaxHappiness(level)
	return View{
		Level:              level,
		Experience:         s.Experience,
		RestExperience:     t.RestExperience(s.Experience),
		ExperiencePerLevel: t.ExperiencePerLevel,
		Fullness:           s.Fullness,
		MaxFullness:        maxF,
		FullnessPercent:    percent(s.Fullness, maxF),
		Happiness:          s.Happiness,
		MaxHappiness:       maxH,
		HappinessPercent:   percent(s.Happiness, maxH),
		Cans:               cans,
	}
}

func percent(v, limit float64) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Round(v / limit * 100))
}
