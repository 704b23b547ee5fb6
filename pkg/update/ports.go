// Package update implements the update service: a small state machine that
// runs update checks and installs through a pluggable Updater, honours user
// deferrals, and keeps the next automatic check scheduled.
package update

import (
	"context"

	"github.com/glorpus-work/upkeep/pkg/phase"
	"github.com/glorpus-work/upkeep/pkg/schedule"
)

//go:generate mockgen -destination=mocks/update.go . AppContext,Updater

// AppContext is the persisted, per-application state the service works with.
type AppContext interface {
	Phase() phase.Phase
	SetPhase(p phase.Phase) error
	// UpdatesDeferredUntil returns the deferral instant in epoch
	// milliseconds, 0 when none is pending.
	UpdatesDeferredUntil() int64
	SetUpdatesDeferredUntil(ms int64) error
	AutomaticUpdates() bool
	SetAutomaticUpdates(automatic bool) error
	// Scheduler returns errors.ErrNoScheduler when the host offers none.
	Scheduler() (schedule.Scheduler, error)
	Version() string
}

// Updater performs the actual check or install. It returns the version
// that is (or was) available, or "" when there is nothing newer.
type Updater interface {
	Update(ctx context.Context, checkOnly bool) (string, error)
}

// UpdaterFunc adapts a function to the Updater interface.
type UpdaterFunc func(ctx context.Context, checkOnly bool) (string, error)

// Update calls f(ctx, checkOnly).
func (f UpdaterFunc) Update(ctx context.Context, checkOnly bool) (string, error) {
	return f(ctx, checkOnly)
}
