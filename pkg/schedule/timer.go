package schedule

import (
	"sync"
	"time"

	"github.com/glorpus-work/upkeep/pkg/errors"
)

// TimerScheduler schedules callbacks on runtime timers. Callbacks run on
// their own goroutine.
type TimerScheduler struct {
	mu      sync.Mutex
	closed  bool
	nextID  uint64
	pending map[uint64]*timerTask
}

// NewTimerScheduler creates an open TimerScheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{pending: make(map[uint64]*timerTask)}
}

type timerTask struct {
	owner *TimerScheduler
	id    uint64
	timer *time.Timer
}

func (t *timerTask) Cancel() bool {
	stopped := t.timer.Stop()
	t.owner.forget(t.id)
	return stopped
}

// Schedule runs fn after delay. A negative delay runs it immediately.
func (s *TimerScheduler) Schedule(fn func(), delay time.Duration) (Task, error) {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.ErrSchedulerClosed
	}

	s.nextID++
	task := &timerTask{owner: s, id: s.nextID}
	task.timer = time.AfterFunc(delay, func() {
		s.forget(task.id)
		fn()
	})
	s.pending[task.id] = task
	return task, nil
}

// Pending returns the number of tasks that have neither fired nor been cancelled.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close cancels every outstanding task and rejects further scheduling.
func (s *TimerScheduler) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for id, task := range s.pending {
		task.timer.Stop()
		delete(s.pending, id)
	}
	return nil
}

func (s *TimerScheduler) forget(id uint64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}
