package pet

import "math"

// MaxCans is the largest can count that is stored and loaded back.
const MaxCans = math.MaxInt32

// MaxLevel caps LevelOf for absurdly large experience values.
const MaxLevel = math.MaxInt32

// State is the companion's persisted resource record.
type State struct {
	Experience float64
	Fullness   float64
	Happiness  float64
}

// Snapshot is the stored form of State. SavedAtMS is the epoch-millisecond
// time of the save; zero means the record predates embedded timestamps.
type Snapshot struct {
	State
	SavedAtMS int64
}

// FeedOutcome is the result of a feed attempt.
type FeedOutcome string

const (
	FeedAlreadyFull FeedOutcome = "already_full"
	FeedNoResource  FeedOutcome = "no_resource"
	Fed             FeedOutcome = "fed"
)

// Accepted reports whether the feed changed the state.
func (o FeedOutcome) Accepted() bool { return o == Fed }

// PetOutcome is the result of a pet attempt.
type PetOutcome string

const (
	PetAlreadySatisfied PetOutcome = "already_satisfied"
	Petted              PetOutcome = "petted"
)

// Accepted reports whether the pet changed the state.
func (o PetOutcome) Accepted() bool { return o == Petted }
