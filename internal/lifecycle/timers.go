package lifecycle

import "time"

// Timers registers and cancels periodic callbacks. schedule.Scheduler is the
// production implementation.
type Timers interface {
	ScheduleEvery(name string, interval time.Duration, fn func()) (string, error)
	Remove(id string) error
}

const (
	triggerDecay = "decay"
	triggerSave  = "save"
)
