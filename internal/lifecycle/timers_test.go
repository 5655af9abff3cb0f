package lifecycle

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// manualTimers is a Timers fake whose jobs only run when fired by the test.
type manualTimers struct {
	mu     sync.Mutex
	seq    int
	jobs   map[string]manualJob
	failOn string
}

type manualJob struct {
	name     string
	interval time.Duration
	fn       func()
}

func newManualTimers() *manualTimers {
	return &manualTimers{jobs: make(map[string]manualJob)}
}

func (m *manualTimers) ScheduleEvery(name string, interval time.Duration, fn func()) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == m.failOn {
		return "", fmt.Errorf("refusing to schedule %s", name)
	}
	m.seq++
	id := fmt.Sprintf("job-%d", m.seq)
	m.jobs[id] = manualJob{name: name, interval: interval, fn: fn}
	return id, nil
}

func (m *manualTimers) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return fmt.Errorf("unknown job %s", id)
	}
	delete(m.jobs, id)
	return nil
}

// callbacks returns the registered callbacks for name.
func (m *manualTimers) callbacks(name string) []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	var fns []func()
	for _, j := range m.jobs {
		if j.name == name {
			fns = append(fns, j.fn)
		}
	}
	return fns
}

// Fire runs every job registered under name and returns how many ran.
func (m *manualTimers) Fire(name string) int {
	fns := m.callbacks(name)
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

func (m *manualTimers) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.jobs))
	for _, j := range m.jobs {
		names = append(names, j.name)
	}
	sort.Strings(names)
	return names
}

func (m *manualTimers) Interval(name string) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		if j.name == name {
			return j.interval
		}
	}
	return 0
}
