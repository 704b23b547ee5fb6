package registry

import (
	"time"

	"github.com/glorpus-work/upkeep/pkg/deferral"
	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/phase"
	"github.com/glorpus-work/upkeep/pkg/schedule"
	"github.com/glorpus-work/upkeep/pkg/update"
)

// PreferenceContext is an update.AppContext persisted in a preference node.
type PreferenceContext struct {
	node             Node
	version          func() string
	defaultPhase     *phase.Phase
	scheduler        schedule.Scheduler
	automaticDefault bool
}

var _ update.AppContext = (*PreferenceContext)(nil)

// ContextOption configures a PreferenceContext.
type ContextOption func(*PreferenceContext)

// WithDefaultPhase fixes the phase used when none is stored. Without it the
// default follows the installed version.
func WithDefaultPhase(p phase.Phase) ContextOption {
	return func(c *PreferenceContext) { c.defaultPhase = &p }
}

// WithScheduler supplies the scheduler for automatic checks.
func WithScheduler(s schedule.Scheduler) ContextOption {
	return func(c *PreferenceContext) { c.scheduler = s }
}

// WithAutomaticUpdates sets the automatic-updates default.
func WithAutomaticUpdates(automatic bool) ContextOption {
	return func(c *PreferenceContext) { c.automaticDefault = automatic }
}

// NewPreferenceContext creates a context over node. version supplies the
// installed version on demand.
func NewPreferenceContext(node Node, version func() string, opts ...ContextOption) *PreferenceContext {
	c := &PreferenceContext{node: node, version: version, automaticDefault: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Context returns a PreferenceContext over the preference node of app.
func (r *Registry) Context(app App, version func() string, opts ...ContextOption) *PreferenceContext {
	return NewPreferenceContext(r.Preferences(app), version, opts...)
}

// Node returns the preference node backing the context.
func (c *PreferenceContext) Node() Node { return c.node }

func (c *PreferenceContext) Phase() phase.Phase {
	def := phase.DefaultForVersion(c.Version())
	if c.defaultPhase != nil {
		def = *c.defaultPhase
	}
	stored, ok := c.node.store.Get(c.node.path, KeyPhase)
	if !ok {
		return def
	}
	p, err := phase.Parse(stored)
	if err != nil {
		return def
	}
	return p
}

func (c *PreferenceContext) SetPhase(p phase.Phase) error {
	return c.node.Put(KeyPhase, p.String())
}

func (c *PreferenceContext) UpdatesDeferredUntil() int64 {
	return c.node.GetInt64(KeyDeferredUntil, 0)
}

func (c *PreferenceContext) SetUpdatesDeferredUntil(ms int64) error {
	return c.node.PutInt64(KeyDeferredUntil, ms)
}

func (c *PreferenceContext) AutomaticUpdates() bool {
	return c.node.GetBool(KeyAutomaticUpdates, c.automaticDefault)
}

func (c *PreferenceContext) SetAutomaticUpdates(automatic bool) error {
	return c.node.PutBool(KeyAutomaticUpdates, automatic)
}

// Scheduler fails with ErrNoScheduler when the context was built without one.
func (c *PreferenceContext) Scheduler() (schedule.Scheduler, error) {
	if c.scheduler == nil {
		return nil, errors.ErrNoScheduler
	}
	return c.scheduler, nil
}

func (c *PreferenceContext) Version() string {
	if c.version == nil {
		return ""
	}
	return c.version()
}

// DeferredUntil is a convenience decoding UpdatesDeferredUntil.
func (c *PreferenceContext) DeferredUntil() time.Time {
	return deferral.FromMillis(c.UpdatesDeferredUntil())
}
