package updater

import (
	"context"
	"os"
	"time"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/errors"
)

const (
	// EnvFakeUpdateVersion overrides the version a DummyUpdater reports.
	// Set to the empty string to report no update.
	EnvFakeUpdateVersion = "UPKEEP_FAKE_UPDATE_VERSION"
	// DefaultFakeVersion is reported when EnvFakeUpdateVersion is unset.
	DefaultFakeVersion = "999.999.999"
)

// DummyUpdater pretends to check and install, for exercising UIs and the
// service state machine without a real feed.
type DummyUpdater struct {
	CheckPause  time.Duration
	UpdatePause time.Duration
	Fail        bool
	OnExit      func(code int)
	LookupEnv   func(string) (string, bool)
}

// NewDummyUpdater returns a dummy with a 10s check, a 5s install that fails.
func NewDummyUpdater() *DummyUpdater {
	return &DummyUpdater{
		CheckPause:  10 * time.Second,
		UpdatePause: 5 * time.Second,
		Fail:        true,
	}
}

// Update implements update.Updater.
func (d *DummyUpdater) Update(ctx context.Context, checkOnly bool) (string, error) {
	pause := d.UpdatePause
	if checkOnly {
		pause = d.CheckPause
	}
	if err := sleep(ctx, pause); err != nil {
		return "", errors.Wrap(errors.ErrCancelled, err.Error())
	}

	v := d.fakeVersion()
	if checkOnly {
		return v, nil
	}
	if d.Fail {
		return "", errors.Wrap(errors.ErrUpdateFailed, "dummy updater configured to fail")
	}
	logger.Info("Dummy update complete", logger.Fields{"version": v})
	if d.OnExit != nil {
		d.OnExit(0)
	}
	return v, nil
}

func (d *DummyUpdater) fakeVersion() string {
	lookup := d.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvFakeUpdateVersion); ok {
		return v
	}
	return DefaultFakeVersion
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
