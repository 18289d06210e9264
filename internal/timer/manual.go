package timer

import (
	"sync"
	"time"
)

type manualTask struct {
	id     TaskID
	due    time.Time
	period time.Duration
	fn     func()
}

// Manual is a virtual clock. Tasks only fire from Advance, on the caller's goroutine.
type Manual struct {
	mu    sync.Mutex
	now   time.Time
	next  TaskID
	tasks map[TaskID]*manualTask
}

// NewManual returns a virtual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:   start,
		tasks: make(map[TaskID]*manualTask),
	}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After schedules fn at Now()+d.
func (m *Manual) After(d time.Duration, fn func()) TaskID {
	return m.add(d, 0, fn)
}

// Every schedules fn at Now()+d, Now()+2d, ...
func (m *Manual) Every(d time.Duration, fn func()) TaskID {
	if d <= 0 {
		d = time.Nanosecond
	}
	return m.add(d, d, fn)
}

func (m *Manual) add(d, period time.Duration, fn func()) TaskID {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.next++
	task := &manualTask{id: m.next, due: m.now.Add(d), period: period, fn: fn}
	m.tasks[task.id] = task
	return task.id
}

// Cancel removes a pending task.
func (m *Manual) Cancel(id TaskID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return false
	}
	delete(m.tasks, id)
	return true
}

// Pending returns the number of scheduled tasks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Advance moves the clock forward by d, firing every task that falls due.
// Tasks fire in due-time order; ties fire in scheduling order. Tasks scheduled
// by a callback fire in the same Advance if they fall due before the target.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		task := m.earliest(target)
		if task == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = task.due
		if task.period > 0 {
			task.due = task.due.Add(task.period)
		} else {
			delete(m.tasks, task.id)
		}
		fn := task.fn
		m.mu.Unlock()

		fn()
	}
}

func (m *Manual) earliest(limit time.Time) *manualTask {
	var best *manualTask
	for _, task := range m.tasks {
		if task.due.After(limit) {
			continue
		}
		if best == nil || task.due.Before(best.due) || (task.due.Equal(best.due) && task.id < best.id) {
			best = task
		}
	}
	return best
}
