package update

import (
	"context"
	goerrors "errors"
	"os"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/deferral"
	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/phase"
	"github.com/glorpus-work/upkeep/pkg/schedule"
)

const (
	// DefaultNonDeferredDelay is how long RescheduleCheck waits before
	// checking when no deferral is pending.
	DefaultNonDeferredDelay = 6 * time.Second

	// EnvNoUpdates disables all updates when true.
	EnvNoUpdates = "UPKEEP_NO_UPDATES"
)

// Service runs checks and updates for one application. Its methods are
// safe for concurrent use; at most one check or update runs at a time.
type Service struct {
	mu               sync.Mutex
	updating         bool
	checkOnly        bool
	availableVersion string
	// deferUntil is the user's deferral. The zero time means none.
	deferUntil time.Time
	task       schedule.Task
	generation uint64
	shutdown   bool

	onAvailableVersion func(string)
	onBusy             func(bool)

	appCtx           AppContext
	updater          Updater
	clock            *deferral.Clock
	enabled          func() bool
	policy           *phase.Policy
	nonDeferredDelay time.Duration
	baseCtx          context.Context
	listeners        Listeners
	// neverInstall keeps timed checks from installing regardless of the
	// stored automatic-updates preference.
	neverInstall bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock substitutes the deferral clock.
func WithClock(c *deferral.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithUpdatesEnabled installs the administrative switch consulted before
// every check or update.
func WithUpdatesEnabled(fn func() bool) Option {
	return func(s *Service) { s.enabled = fn }
}

// WithNonDeferredDelay sets the delay RescheduleCheck uses when no
// deferral is pending.
func WithNonDeferredDelay(d time.Duration) Option {
	return func(s *Service) { s.nonDeferredDelay = d }
}

// WithPhasePolicy sets the policy deciding whether Continuous is offered.
func WithPhasePolicy(p *phase.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithBaseContext sets the context passed to the Updater for scheduled checks.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Service) { s.baseCtx = ctx }
}

// WithCheckOnly stops scheduled checks from installing what they find.
func WithCheckOnly() Option {
	return func(s *Service) { s.neverInstall = true }
}

// New creates a Service for appCtx that delegates the work to updater.
func New(appCtx AppContext, updater Updater, opts ...Option) *Service {
	s := &Service{
		appCtx:           appCtx,
		updater:          updater,
		clock:            deferral.New(),
		enabled:          UpdatesEnabledFromEnv,
		nonDeferredDelay: DefaultNonDeferredDelay,
		baseCtx:          context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdatesEnabledFromEnv is the default administrative switch: updates are
// enabled unless EnvNoUpdates is set to a true value.
func UpdatesEnabledFromEnv() bool {
	disabled, err := strconv.ParseBool(os.Getenv(EnvNoUpdates))
	return err != nil || !disabled
}

// Context returns the application context the service was created with.
func (s *Service) Context() AppContext {
	return s.appCtx
}

// CurrentVersion returns the installed version.
func (s *Service) CurrentVersion() string {
	return s.appCtx.Version()
}

// UpdatesEnabled reports the administrative switch.
func (s *Service) UpdatesEnabled() bool {
	return s.enabled == nil || s.enabled()
}

// AvailableVersion returns the version found by the last check, if any.
func (s *Service) AvailableVersion() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.availableVersion, s.availableVersion != ""
}

// NeedsUpdating reports whether a check found a newer version.
func (s *Service) NeedsUpdating() bool {
	_, ok := s.AvailableVersion()
	return ok
}

// IsUpdating reports whether a check or update is in flight.
func (s *Service) IsUpdating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updating
}

// IsCheckOnly reports whether the current (or last) run was a check only.
func (s *Service) IsCheckOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkOnly
}

// DeferredUntil returns the pending deferral, or the zero time.
func (s *Service) DeferredUntil() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deferUntil
}

// SetOnAvailableVersion registers fn to be called whenever the available
// version is recorded, including when it is cleared.
func (s *Service) SetOnAvailableVersion(fn func(string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAvailableVersion = fn
}

// SetOnBusy registers fn to be called when a run starts and finishes.
func (s *Service) SetOnBusy(fn func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onBusy = fn
}

// AddDownloadListener registers a download progress listener.
func (s *Service) AddDownloadListener(fn DownloadListener) ListenerID {
	return s.listeners.Add(fn)
}

// RemoveDownloadListener unregisters a download progress listener.
func (s *Service) RemoveDownloadListener(id ListenerID) {
	s.listeners.Remove(id)
}

// FireDownload delivers a download event to the registered listeners.
func (s *Service) FireDownload(ev DownloadEvent) {
	s.listeners.Fire(ev)
}

// Phases lists the release channels this installation may choose from.
func (s *Service) Phases() []phase.Phase {
	continuous := s.appCtx.Phase() == phase.Continuous ||
		phase.DefaultForVersion(s.appCtx.Version()) == phase.Continuous ||
		s.policy.ContinuousAllowed()
	if continuous {
		return phase.All()
	}
	return slices.DeleteFunc(phase.All(), func(p phase.Phase) bool { return p == phase.Continuous })
}

// CheckForUpdate clears any deferral, including the persisted one, and
// checks for a newer version.
func (s *Service) CheckForUpdate(ctx context.Context) error {
	if s.appCtx.UpdatesDeferredUntil() != 0 {
		if err := s.appCtx.SetUpdatesDeferredUntil(0); err != nil {
			return errors.Wrap(err, "failed to clear deferral")
		}
	}
	s.mu.Lock()
	s.deferUntil = time.Time{}
	s.mu.Unlock()

	logger.Info("Checking for updates")
	return s.update(ctx, true)
}

// Update installs the version found by a previous check. It fails with
// ErrNoUpdateAvailable when no check has found one.
func (s *Service) Update(ctx context.Context) error {
	if !s.NeedsUpdating() {
		return errors.ErrNoUpdateAvailable
	}
	return s.update(ctx, false)
}

// DeferUpdate forgets the available version and postpones the next check
// to tomorrow's deferral window. The deferral is persisted to the context.
func (s *Service) DeferUpdate() error {
	s.mu.Lock()
	s.availableVersion = ""
	onAvailable := s.onAvailableVersion
	s.deferUntil = s.clock.NextDeferral(s.clock.Now())
	until := s.deferUntil
	schedErr := s.reschedule(0)
	s.mu.Unlock()

	if onAvailable != nil {
		onAvailable("")
	}

	if err := s.appCtx.SetUpdatesDeferredUntil(deferral.ToMillis(until)); err != nil {
		return errors.Wrap(err, "failed to persist deferral")
	}

	if schedErr != nil {
		if goerrors.Is(schedErr, errors.ErrNoScheduler) {
			logger.Warn("No scheduler, update check will not occur this runtime")
			return nil
		}
		return schedErr
	}
	logger.Info("Deferred update", logger.Fields{"until": until.Local().Format(time.DateTime)})
	return nil
}

// RescheduleCheck re-reads the persisted deferral and programs the next
// automatic check: at the deferral instant if it lies in the future, or
// after the non-deferred delay otherwise.
func (s *Service) RescheduleCheck() error {
	deferredUntil := deferral.FromMillis(s.appCtx.UpdatesDeferredUntil())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.deferUntil = deferredUntil
	return s.reschedule(s.nonDeferredDelay)
}

// Shutdown cancels the pending automatic check. Callbacks that fire after
// Shutdown are ignored. Calling it again has no effect.
func (s *Service) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.shutdown {
		return
	}
	s.shutdown = true
	s.cancelTask()
}

// update is the shared check/update path.
func (s *Service) update(ctx context.Context, check bool) error {
	_, err := s.run(ctx, check)
	return err
}

// run reports whether the Updater was invoked. When it was, finish has
// already programmed the next check for a check run.
func (s *Service) run(ctx context.Context, check bool) (ran bool, err error) {
	proceed, err := s.begin(check)
	if !proceed {
		return false, err
	}

	var found string
	defer func() {
		s.finish(check, found, err)
	}()

	found, err = s.updater.Update(ctx, check)
	return true, err
}

// begin atomically transitions into the updating state when a run may
// proceed. A check honours the persisted deferral, which another process
// may have written.
func (s *Service) begin(check bool) (bool, error) {
	var persisted time.Time
	if check {
		persisted = deferral.FromMillis(s.appCtx.UpdatesDeferredUntil())
	}

	s.mu.Lock()
	if s.updating {
		s.mu.Unlock()
		return false, errors.ErrAlreadyUpdating
	}

	if !s.UpdatesEnabled() {
		s.availableVersion = ""
		onAvailable := s.onAvailableVersion
		s.mu.Unlock()

		logger.Info("Updates disabled")
		if onAvailable != nil {
			onAvailable("")
		}
		return false, nil
	}

	if check {
		s.deferUntil = persisted
	}
	if check && !deferral.Elapsed(s.deferUntil, s.clock.Now()) {
		until := s.deferUntil
		s.mu.Unlock()
		logger.Info("Updates deferred", logger.Fields{"until": until.Local().Format(time.DateTime)})
		return false, nil
	}

	s.deferUntil = time.Time{}
	s.updating = true
	s.checkOnly = check
	onBusy := s.onBusy
	s.mu.Unlock()

	if onBusy != nil {
		onBusy(true)
	}
	return true, nil
}

func (s *Service) finish(check bool, found string, err error) {
	s.mu.Lock()
	if err == nil {
		s.availableVersion = found
	}
	onAvailable := s.onAvailableVersion
	onBusy := s.onBusy
	s.updating = false
	var schedErr error
	if check {
		schedErr = s.reschedule(0)
	}
	s.mu.Unlock()

	if err == nil && onAvailable != nil {
		onAvailable(found)
	}
	if onBusy != nil {
		onBusy(false)
	}
	if schedErr != nil {
		logger.Debug("Next update check not scheduled", logger.Fields{"error": schedErr})
	}
}

// timedCheck is the scheduled callback. Errors are logged and the next
// check is always programmed. A found version is installed when automatic
// updates are on, the service is not check-only and no deferral is pending.
func (s *Service) timedCheck(generation uint64) {
	s.mu.Lock()
	if s.shutdown || generation != s.generation {
		s.mu.Unlock()
		return
	}
	s.task = nil
	s.mu.Unlock()

	ran, err := s.run(s.baseCtx, true)
	switch {
	case err != nil:
		logger.Error("Failed to automatically check for updates", logger.Fields{"error": err})
	case ran && s.installAutomatically():
		if err := s.update(s.baseCtx, false); err != nil {
			logger.Error("Failed to automatically update", logger.Fields{"error": err})
		}
	}
	if ran {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reschedule(0); err != nil {
		logger.Debug("Next update check not scheduled", logger.Fields{"error": err})
	}
}

func (s *Service) installAutomatically() bool {
	if s.neverInstall || !s.NeedsUpdating() || !s.appCtx.AutomaticUpdates() {
		return false
	}
	return deferral.Elapsed(deferral.FromMillis(s.appCtx.UpdatesDeferredUntil()), s.clock.Now())
}

// reschedule replaces the pending check. A pending deferral wins; otherwise
// a positive nonDeferred delay is used, and zero means tomorrow's window.
// Callers hold s.mu.
func (s *Service) reschedule(nonDeferred time.Duration) error {
	s.cancelTask()
	if s.shutdown {
		return nil
	}

	now := s.clock.Now()
	if !s.deferUntil.IsZero() {
		if wait := deferral.TimeUntil(s.deferUntil, now); wait > 0 {
			logger.Info("Scheduling next check", logger.Fields{"at": s.deferUntil.Local().Format(time.DateTime)})
			return s.scheduleCheck(wait)
		}
	}
	if nonDeferred > 0 {
		return s.scheduleCheck(nonDeferred)
	}

	next := s.clock.NextDeferral(now)
	logger.Debug("Scheduling next check", logger.Fields{"at": next.Local().Format(time.DateTime)})
	return s.scheduleCheck(deferral.TimeUntil(next, now))
}

// scheduleCheck programs timedCheck after delay. Callers hold s.mu.
func (s *Service) scheduleCheck(delay time.Duration) error {
	scheduler, err := s.appCtx.Scheduler()
	if err != nil {
		return err
	}

	s.generation++
	generation := s.generation
	task, err := scheduler.Schedule(func() { s.timedCheck(generation) }, delay)
	if err != nil {
		return err
	}
	s.task = task
	return nil
}

// cancelTask cancels the pending check. Callers hold s.mu.
func (s *Service) cancelTask() {
	s.generation++
	if s.task != nil {
		s.task.Cancel()
		s.task = nil
	}
}
