package hook

import (
	"context"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/glorpus-work/upkeep/pkg/errors"
)

// TengoExecutor handles the execution of Tengo scripts.
type TengoExecutor struct {
	scripts map[HookType]string
	mutex   sync.RWMutex
}

// NewTengoExecutor creates a new Tengo script executor.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[HookType]string),
	}
}

// Execute runs the script registered for hookType. A script reports failure
// by assigning a non-empty string or an error to the global "err".
func (e *TengoExecutor) Execute(ctx context.Context, hookType HookType, hc HookContext) error {
	e.mutex.RLock()
	script, exists := e.scripts[hookType]
	e.mutex.RUnlock()
	if !exists {
		return nil
	}

	scriptInstance := tengo.NewScript([]byte(script))
	scriptInstance.SetImports(stdlib.GetModuleMap("fmt", "os", "strings", "text", "times"))

	_ = scriptInstance.Add("appId", hc.AppID)
	_ = scriptInstance.Add("currentVersion", hc.CurrentVersion)
	_ = scriptInstance.Add("newVersion", hc.NewVersion)
	_ = scriptInstance.Add("appDir", hc.AppDir)
	_ = scriptInstance.Add("mediaPath", hc.MediaPath)
	for k, v := range hc.Vars {
		_ = scriptInstance.Add(k, v)
	}

	compiled, err := scriptInstance.RunContext(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrapf(errors.ErrHookExecution, "%s: %v", hookType, ctxErr)
		}
		return errors.Wrapf(errors.ErrHookExecution, "%s: %v", hookType, err)
	}

	if errVar := compiled.Get("err"); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return errors.Wrapf(errors.ErrHookScript, "%s: %s", hookType, v.Error())
		case string:
			if v != "" {
				return errors.Wrapf(errors.ErrHookScript, "%s: %s", hookType, v)
			}
		}
	}
	return nil
}

// AddScript adds or updates a script for the specified hook type.
func (e *TengoExecutor) AddScript(hookType HookType, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

// RemoveScript removes the script for the specified hook type.
func (e *TengoExecutor) RemoveScript(hookType HookType) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.scripts, hookType)
}

// HasScript checks if a script exists for the specified hook type.
func (e *TengoExecutor) HasScript(hookType HookType) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}
