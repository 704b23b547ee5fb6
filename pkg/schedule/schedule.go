// Package schedule provides the delayed-execution port used by the update
// service together with a few implementations of it.
package schedule

import (
	"time"

	"github.com/glorpus-work/upkeep/pkg/errors"
)

//go:generate mockgen -destination=mocks/schedule.go . Scheduler,Task

// Scheduler runs a callback once after a delay.
type Scheduler interface {
	Schedule(fn func(), delay time.Duration) (Task, error)
}

// Task is a pending scheduled callback.
type Task interface {
	// Cancel prevents the callback from running if it has not started yet.
	// A callback already running is not interrupted. It reports whether
	// the call stopped the task.
	Cancel() bool
}

// None is the scheduler of a host that offers no background execution.
type None struct{}

// Schedule always fails with ErrNoScheduler.
func (None) Schedule(func(), time.Duration) (Task, error) {
	return nil, errors.ErrNoScheduler
}
