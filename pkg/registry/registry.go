package registry

import (
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/glorpus-work/upkeep/internal/logger"
	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/phase"
	"github.com/glorpus-work/upkeep/pkg/telemetry"
)

const (
	registryNode = "registry"
	appsNode     = "apps"
	keyUserID    = "userId"

	// PhasePlaceholder is replaced with the lower-case phase in update URLs.
	PhasePlaceholder = "${phase}"
)

// Preference keys of the per-app node.
const (
	KeyPhase            = "phase"
	KeyAutomaticUpdates = "automaticUpdates"
	KeyDeferredUntil    = "updatesDeferredUntil"
)

// Registry finds, registers and removes applications.
type Registry struct {
	user   Store
	system Store
	admin  bool
	events *telemetry.Journal
}

// Option configures a Registry.
type Option func(*Registry)

// WithAdmin overrides the detection of administrative rights. Admins see
// system apps by default and register into the system scope.
func WithAdmin(admin bool) Option {
	return func(r *Registry) { r.admin = admin }
}

// WithJournal records registry events into j.
func WithJournal(j *telemetry.Journal) Option {
	return func(r *Registry) { r.events = j }
}

// New creates a Registry over a user and a system store.
func New(user, system Store, opts ...Option) *Registry {
	r := &Registry{user: user, system: system, admin: HasAdminRights()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasAdminRights reports whether the process may write the system scope.
func HasAdminRights() bool {
	if runtime.GOOS == "windows" {
		return false
	}
	return os.Geteuid() == 0
}

func (r *Registry) store(scope Scope) (Store, error) {
	switch scope {
	case ScopeUser:
		return r.user, nil
	case ScopeSystem:
		return r.system, nil
	}
	return nil, errors.Wrapf(errors.ErrInvalidScope, "%q", scope)
}

// Apps lists registered applications. An empty scope lists user apps, then
// (for admins) system apps not shadowed by a user app. Unreadable entries
// are logged and skipped.
func (r *Registry) Apps(scope Scope) []App {
	var apps []App
	if scope == "" || scope == ScopeUser {
		logger.Debug("Retrieving user applications")
		apps = append(apps, r.scan(ScopeUser, nil)...)
	}
	if (scope == "" && r.admin) || scope == ScopeSystem {
		logger.Debug("Retrieving system applications")
		apps = append(apps, r.scan(ScopeSystem, apps)...)
	}
	return apps
}

func (r *Registry) scan(scope Scope, shadowing []App) []App {
	store, _ := r.store(scope)
	ids, err := store.Children(registryNode)
	if err != nil {
		logger.Error("Failed to list applications", logger.Fields{"scope": scope, "error": err})
		return nil
	}

	var apps []App
	for _, id := range ids {
		if slices.ContainsFunc(shadowing, func(a App) bool { return a.ID == id }) {
			logger.Warn("Already installed as user app, that will take precedence", logger.Fields{"app": id})
			continue
		}
		app, err := r.read(scope, id)
		if err != nil {
			logger.Error("Failed to add app", logger.Fields{"app": id, "error": err})
			continue
		}
		apps = append(apps, app)
	}
	return apps
}

func (r *Registry) read(scope Scope, id string) (App, error) {
	store, err := r.store(scope)
	if err != nil {
		return App{}, err
	}
	app, err := appFromNode(scope, NodeOf(store, registryNode+"/"+id))
	if err != nil {
		return App{}, err
	}
	if _, err := os.Stat(app.Dir); os.IsNotExist(err) {
		if derr := store.Delete(registryNode + "/" + id); derr == nil {
			_ = store.Flush()
		}
		return App{}, errors.Wrapf(errors.ErrAppNotFound, "%s has been uninstalled from %s", id, app.Dir)
	}
	return app, nil
}

// Get returns the application with the given id, preferring the user scope.
func (r *Registry) Get(id string) (App, error) {
	for _, scope := range []Scope{ScopeUser, ScopeSystem} {
		store, _ := r.store(scope)
		ids, err := store.Children(registryNode)
		if err != nil {
			return App{}, err
		}
		if slices.Contains(ids, id) {
			return r.read(scope, id)
		}
	}
	return App{}, errors.Wrapf(errors.ErrAppNotFound, "%s is not registered", id)
}

// GetByDir returns the application installed in dir.
func (r *Registry) GetByDir(dir string) (App, error) {
	want, err := realPath(dir)
	if err != nil {
		return App{}, err
	}
	for _, app := range r.Apps(ScopeUser) {
		if p, err := realPath(app.Dir); err == nil && p == want {
			return app, nil
		}
	}
	for _, app := range r.Apps(ScopeSystem) {
		if p, err := realPath(app.Dir); err == nil && p == want {
			return app, nil
		}
	}
	return App{}, errors.Wrapf(errors.ErrAppNotFound, "no application registered in %s", dir)
}

func realPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// Register records app. Without an explicit scope the app goes into the
// system scope for admins and the user scope otherwise.
func (r *Registry) Register(app App) (App, error) {
	if err := app.Validate(); err != nil {
		return App{}, err
	}
	if app.Scope == "" {
		app.Scope = ScopeUser
		if r.admin {
			app.Scope = ScopeSystem
		}
	}
	store, err := r.store(app.Scope)
	if err != nil {
		return App{}, err
	}

	logger.Debug("Registering application", logger.Fields{
		"app":       app.ID,
		"scope":     app.Scope,
		"updates":   app.UpdatesURL,
		"launcher":  app.LauncherID,
		"packaging": app.Packaging.String(),
	})
	if err := app.writeTo(store, registryNode+"/"+app.ID); err != nil {
		return App{}, errors.Wrapf(err, "failed to register %s", app.ID)
	}
	if err := store.Flush(); err != nil {
		return App{}, errors.Wrapf(err, "failed to flush registration of %s", app.ID)
	}

	r.record(app, telemetry.EventRegister, "Application registered.")
	return app, nil
}

// Deregister removes the application with the given id.
func (r *Registry) Deregister(id string) error {
	app, err := r.Get(id)
	if err != nil {
		return err
	}
	r.record(app, telemetry.EventDeregister, "Application deregistered.")

	store, err := r.store(app.Scope)
	if err != nil {
		return err
	}
	logger.Debug("De-registering application", logger.Fields{"app": id, "scope": app.Scope})
	if err := store.Delete(registryNode + "/" + id); err != nil {
		return errors.Wrapf(err, "failed to deregister %s", id)
	}
	return store.Flush()
}

// Preferences returns the per-user preference node of app.
func (r *Registry) Preferences(app App) Node {
	return NodeOf(r.user, appsNode+"/"+strings.ReplaceAll(app.ID, ".", "/"))
}

// UpdatesURL resolves the update descriptor location of app for phase p.
func (r *Registry) UpdatesURL(app App, p phase.Phase) (*url.URL, error) {
	if app.UpdatesURL == "" {
		return nil, errors.Wrapf(errors.ErrNoUpdatesURL, "%s", app.ID)
	}
	raw := strings.ReplaceAll(app.UpdatesURL, PhasePlaceholder, p.Lower())
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid updates url for %s", app.ID)
	}
	return u, nil
}

// UserID returns the persisted telemetry user id, creating it on first use.
func (r *Registry) UserID() (string, error) {
	if id, ok := r.user.Get(registryNode, keyUserID); ok && id != "" {
		return id, nil
	}
	id := telemetry.NewID()
	if err := r.user.Put(registryNode, keyUserID, id); err != nil {
		return "", err
	}
	return id, r.user.Flush()
}

// Record journals an event about app, if a journal is configured.
func (r *Registry) Record(app App, kind telemetry.EventType, description string) {
	r.record(app, kind, description)
}

func (r *Registry) record(app App, kind telemetry.EventType, description string) {
	if r.events == nil {
		return
	}
	err := r.events.Record(telemetry.Event{
		Type:        kind,
		Description: description,
		AppID:       app.ID,
		Scope:       string(app.Scope),
		Packaging:   app.Packaging.String(),
	})
	if err != nil {
		logger.Debug("Failed to record telemetry", logger.Fields{"app": app.ID, "error": err})
	}
}
