package timer

import (
	"sync"
	"time"
)

type realtimeTask struct {
	timer *time.Timer
	stop  chan struct{}
}

// Realtime schedules tasks against the wall clock.
type Realtime struct {
	mu    sync.Mutex
	next  TaskID
	tasks map[TaskID]*realtimeTask
}

// NewRealtime returns a wall-clock scheduler.
func NewRealtime() *Realtime {
	return &Realtime{tasks: make(map[TaskID]*realtimeTask)}
}

// Now returns time.Now.
func (r *Realtime) Now() time.Time {
	return time.Now()
}

// After runs fn on its own goroutine once d has elapsed.
func (r *Realtime) After(d time.Duration, fn func()) TaskID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	id := r.next
	task := &realtimeTask{}
	task.timer = time.AfterFunc(d, func() {
		if r.take(id) {
			fn()
		}
	})
	r.tasks[id] = task
	return id
}

// Every runs fn on a dedicated goroutine each time d elapses.
func (r *Realtime) Every(d time.Duration, fn func()) TaskID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	id := r.next
	task := &realtimeTask{stop: make(chan struct{})}
	r.tasks[id] = task

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-task.stop:
				return
			case <-ticker.C:
				if !r.pending(id) {
					return
				}
				fn()
			}
		}
	}()
	return id
}

// Cancel stops a pending task.
func (r *Realtime) Cancel(id TaskID) bool {
	r.mu.Lock()
	task, ok := r.tasks[id]
	if ok {
		delete(r.tasks, id)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	if task.timer != nil {
		task.timer.Stop()
	}
	if task.stop != nil {
		close(task.stop)
	}
	return true
}

// Pending returns the number of tasks not yet fired or canceled.
func (r *Realtime) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

func (r *Realtime) take(id TaskID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return false
	}
	delete(r.tasks, id)
	return true
}

func (r *Realtime) pending(id TaskID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[id]
	return ok
}
