// Package hook runs the optional tengo scripts an application ships to
// prepare for, or finish, an update.
package hook

import "context"

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PreUpdate  HookType = "pre-update"
	PostUpdate HookType = "post-update"
)

// Types lists every supported hook type in execution order.
func Types() []HookType {
	return []HookType{PreUpdate, PostUpdate}
}

// Valid reports whether t is a supported hook type.
func (t HookType) Valid() bool {
	return t == PreUpdate || t == PostUpdate
}

// Hook is a script bound to a hook type. Source is the file it was read
// from, if any.
type Hook struct {
	Type    HookType
	Content string
	Source  string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	AppID          string
	CurrentVersion string
	NewVersion     string
	AppDir         string
	MediaPath      string
	Vars           map[string]interface{}
}

//go:generate mockgen -destination=mocks/hook.go . HookManager

// HookManager defines the interface for managing hooks.
type HookManager interface {
	// Execute runs the specified hook type with the given context
	Execute(ctx context.Context, hookType HookType, hc HookContext) error

	// AddHook adds a new hook
	AddHook(hook Hook) error

	// RemoveHook removes a hook of the specified type
	RemoveHook(hookType HookType) error

	// HasHook checks if a hook of the specified type exists
	HasHook(hookType HookType) bool
}
