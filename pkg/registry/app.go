// Package registry records which applications are installed, where, and
// how they are updated. Applications live in a user scope and a system
// scope; a user registration shadows a system one with the same id.
package registry

import (
	"fmt"
	"strings"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/media"
)

// Scope is where an application is registered.
type Scope string

const (
	ScopeUser   Scope = "USER"
	ScopeSystem Scope = "SYSTEM"
)

// ParseScope accepts a scope name in any case.
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToUpper(strings.TrimSpace(s))) {
	case ScopeUser:
		return ScopeUser, nil
	case ScopeSystem:
		return ScopeSystem, nil
	}
	return "", errors.Wrapf(errors.ErrInvalidScope, "%q", s)
}

// Category is the kind of application.
type Category string

const (
	CategoryGUI     Category = "GUI"
	CategoryCLI     Category = "CLI"
	CategoryService Category = "SERVICE"
)

// ParseCategory accepts a category name in any case.
func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(s))); c {
	case CategoryGUI, CategoryCLI, CategoryService:
		return c, nil
	}
	return "", errors.Wrapf(errors.ErrInvalidApp, "unknown category %q", s)
}

// App is a registered application.
type App struct {
	ID         string
	Dir        string
	LauncherID string
	// UpdatesURL may contain ${phase}. Empty when the app is not updateable.
	UpdatesURL string
	Packaging  media.Type
	Category   Category
	Scope      Scope
}

// Validate checks the fields every registration needs.
func (a App) Validate() error {
	switch {
	case a.ID == "":
		return errors.Wrap(errors.ErrInvalidApp, "missing id")
	case strings.ContainsAny(a.ID, `/\`):
		return errors.Wrapf(errors.ErrInvalidApp, "id %q contains a path separator", a.ID)
	case a.Dir == "":
		return errors.Wrap(errors.ErrInvalidApp, "missing directory")
	case a.LauncherID == "":
		return errors.Wrap(errors.ErrInvalidApp, "missing launcher id")
	}
	return nil
}

func (a App) String() string {
	return fmt.Sprintf("%s (%s, %s)", a.ID, strings.ToLower(string(a.Scope)), a.Dir)
}

const (
	keyID         = "id"
	keyDir        = "appDir"
	keyLauncherID = "launcherId"
	keyUpdatesURL = "updatesUrl"
	keyPackaging  = "packaging"
	keyCategory   = "category"
)

func appFromNode(scope Scope, n Node) (App, error) {
	app := App{
		ID:         n.Get(keyID, ""),
		Dir:        n.Get(keyDir, ""),
		LauncherID: n.Get(keyLauncherID, ""),
		UpdatesURL: n.Get(keyUpdatesURL, ""),
		Scope:      scope,
	}
	if err := app.Validate(); err != nil {
		return App{}, err
	}

	packaging, err := media.ParseType(n.Get(keyPackaging, media.TypeInstaller.String()))
	if err != nil {
		return App{}, errors.Wrapf(errors.ErrInvalidApp, "%s: %v", app.ID, err)
	}
	app.Packaging = packaging

	category, err := ParseCategory(n.Get(keyCategory, string(CategoryGUI)))
	if err != nil {
		return App{}, err
	}
	app.Category = category
	return app, nil
}

func (a App) writeTo(store Store, node string) error {
	category := a.Category
	if category == "" {
		category = CategoryGUI
	}
	values := [][2]string{
		{keyID, a.ID},
		{keyDir, a.Dir},
		{keyLauncherID, a.LauncherID},
		{keyUpdatesURL, a.UpdatesURL},
		{keyPackaging, a.Packaging.String()},
		{keyCategory, string(category)},
	}
	for _, kv := range values {
		if err := store.Put(node, kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}
