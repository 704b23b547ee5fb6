package hook

import (
	"context"
	"sync"
	"time"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/errors"
)

// DefaultTimeout bounds a single hook run.
const DefaultTimeout = 2 * time.Minute

// DefaultHookManager keeps at most one script per hook type and runs it
// through a TengoExecutor.
type DefaultHookManager struct {
	executor *TengoExecutor
	timeout  time.Duration

	mu      sync.RWMutex
	sources map[HookType]string
}

// ManagerOption configures a DefaultHookManager.
type ManagerOption func(*DefaultHookManager)

// WithTimeout overrides DefaultTimeout. Zero or negative disables the limit.
func WithTimeout(d time.Duration) ManagerOption {
	return func(m *DefaultHookManager) { m.timeout = d }
}

// NewHookManager creates a new hook manager.
func NewHookManager(opts ...ManagerOption) *DefaultHookManager {
	m := &DefaultHookManager{
		executor: NewTengoExecutor(),
		timeout:  DefaultTimeout,
		sources:  make(map[HookType]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Execute runs the hook registered for hookType. A missing hook is not an
// error. The run is aborted when ctx is done or the manager timeout expires.
func (m *DefaultHookManager) Execute(ctx context.Context, hookType HookType, hc HookContext) error {
	if !m.HasHook(hookType) {
		return nil
	}
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	vars := make(map[string]interface{}, len(hc.Vars))
	for k, v := range hc.Vars {
		vars[k] = v
	}
	hc.Vars = vars

	start := time.Now()
	logger.Debug("Running hook", logger.Fields{"hook": hookType, "app": hc.AppID, "source": m.Source(hookType)})
	err := m.executor.Execute(ctx, hookType, hc)
	logger.Debug("Hook finished", logger.Fields{"hook": hookType, "app": hc.AppID, "took": time.Since(start).String()})
	return err
}

// AddHook registers hook, replacing any earlier script of the same type.
func (m *DefaultHookManager) AddHook(hook Hook) error {
	if hook.Type == "" {
		return errors.ErrHookTypeEmpty
	}
	if !hook.Type.Valid() {
		return errors.Wrapf(errors.ErrHookLoad, "unknown hook type %q", hook.Type)
	}
	m.executor.AddScript(hook.Type, hook.Content)

	m.mu.Lock()
	m.sources[hook.Type] = hook.Source
	m.mu.Unlock()
	return nil
}

// RemoveHook removes a hook of the specified type.
func (m *DefaultHookManager) RemoveHook(hookType HookType) error {
	if hookType == "" {
		return errors.ErrHookTypeEmpty
	}
	m.executor.RemoveScript(hookType)

	m.mu.Lock()
	delete(m.sources, hookType)
	m.mu.Unlock()
	return nil
}

// HasHook checks if a hook of the specified type exists.
func (m *DefaultHookManager) HasHook(hookType HookType) bool {
	return m.executor.HasScript(hookType)
}

// Source returns the file a hook was loaded from, or "" for hooks added in
// memory or not registered.
func (m *DefaultHookManager) Source(hookType HookType) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sources[hookType]
}
