package registry

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/media"
	"github.com/glorpus-work/upkeep/pkg/phase"
	"github.com/glorpus-work/upkeep/pkg/schedule"
	"github.com/glorpus-work/upkeep/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testApp(t *testing.T, id string) App {
	t.Helper()
	return App{
		ID:         id,
		Dir:        t.TempDir(),
		LauncherID: "1234",
		UpdatesURL: "https://updates.example.com/${phase}/updates.xml",
		Packaging:  media.TypeArchive,
		Category:   CategoryCLI,
	}
}

func TestApp_Validate(t *testing.T) {
	tests := []struct {
		name string
		app  App
	}{
		{"missing id", App{Dir: "/opt/a", LauncherID: "1"}},
		{"missing dir", App{ID: "a", LauncherID: "1"}},
		{"missing launcher", App{ID: "a", Dir: "/opt/a"}},
		{"separator in id", App{ID: "a/b", Dir: "/opt/a", LauncherID: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.app.Validate(), errors.ErrInvalidApp)
		})
	}
	assert.NoError(t, App{ID: "a", Dir: "/opt/a", LauncherID: "1"}.Validate())
}

func TestParseScopeAndCategory(t *testing.T) {
	s, err := ParseScope("system")
	require.NoError(t, err)
	assert.Equal(t, ScopeSystem, s)
	_, err = ParseScope("global")
	assert.ErrorIs(t, err, errors.ErrInvalidScope)

	c, err := ParseCategory("service")
	require.NoError(t, err)
	assert.Equal(t, CategoryService, c)
	_, err = ParseCategory("daemon")
	assert.ErrorIs(t, err, errors.ErrInvalidApp)
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	journalDir := t.TempDir()
	journal := telemetry.NewJournal(journalDir, "u")
	r := New(NewMemoryStore(), NewMemoryStore(), WithAdmin(false), WithJournal(journal))

	app := testApp(t, "com.example.tool")
	registered, err := r.Register(app)
	require.NoError(t, err)
	assert.Equal(t, ScopeUser, registered.Scope)

	got, err := r.Get("com.example.tool")
	require.NoError(t, err)
	assert.Equal(t, registered, got)

	_, err = r.Get("com.example.missing")
	assert.ErrorIs(t, err, errors.ErrAppNotFound)

	events, err := journal.Drain()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, telemetry.EventRegister, events[0].Type)
	assert.Equal(t, "ARCHIVE", events[0].Packaging)
}

func TestRegistry_AdminRegistersSystemWide(t *testing.T) {
	r := New(NewMemoryStore(), NewMemoryStore(), WithAdmin(true))
	app, err := r.Register(testApp(t, "com.example.svc"))
	require.NoError(t, err)
	assert.Equal(t, ScopeSystem, app.Scope)

	assert.Empty(t, r.Apps(ScopeUser))
	assert.Len(t, r.Apps(ScopeSystem), 1)
	assert.Len(t, r.Apps(""), 1)
}

func TestRegistry_UserShadowsSystem(t *testing.T) {
	r := New(NewMemoryStore(), NewMemoryStore(), WithAdmin(true))

	sys := testApp(t, "com.example.app")
	sys.Scope = ScopeSystem
	_, err := r.Register(sys)
	require.NoError(t, err)

	usr := testApp(t, "com.example.app")
	usr.Scope = ScopeUser
	_, err = r.Register(usr)
	require.NoError(t, err)

	other := testApp(t, "com.example.other")
	other.Scope = ScopeSystem
	_, err = r.Register(other)
	require.NoError(t, err)

	apps := r.Apps("")
	require.Len(t, apps, 2)
	assert.Equal(t, ScopeUser, apps[0].Scope)
	assert.Equal(t, usr.Dir, apps[0].Dir)
	assert.Equal(t, "com.example.other", apps[1].ID)

	got, err := r.Get("com.example.app")
	require.NoError(t, err)
	assert.Equal(t, ScopeUser, got.Scope)
}

func TestRegistry_NonAdminSkipsSystemByDefault(t *testing.T) {
	system := NewMemoryStore()
	admin := New(NewMemoryStore(), system, WithAdmin(true))
	_, err := admin.Register(testApp(t, "com.example.svc"))
	require.NoError(t, err)

	r := New(NewMemoryStore(), system, WithAdmin(false))
	assert.Empty(t, r.Apps(""))
	assert.Len(t, r.Apps(ScopeSystem), 1)
}

func TestRegistry_SkipsBrokenAndUninstalled(t *testing.T) {
	user := NewMemoryStore()
	r := New(user, NewMemoryStore(), WithAdmin(false))

	_, err := r.Register(testApp(t, "com.example.good"))
	require.NoError(t, err)

	require.NoError(t, user.Put("registry/com.example.broken", "id", "com.example.broken"))

	gone := testApp(t, "com.example.gone")
	gone.Dir = filepath.Join(t.TempDir(), "removed")
	_, err = r.Register(gone)
	require.NoError(t, err)

	apps := r.Apps(ScopeUser)
	require.Len(t, apps, 1)
	assert.Equal(t, "com.example.good", apps[0].ID)

	// The uninstalled app was pruned.
	children, err := user.Children("registry")
	require.NoError(t, err)
	assert.NotContains(t, children, "com.example.gone")
}

func TestRegistry_Deregister(t *testing.T) {
	journal := telemetry.NewJournal(t.TempDir(), "u")
	r := New(NewMemoryStore(), NewMemoryStore(), WithAdmin(false), WithJournal(journal))
	_, err := r.Register(testApp(t, "com.example.app"))
	require.NoError(t, err)

	require.NoError(t, r.Deregister("com.example.app"))
	_, err = r.Get("com.example.app")
	assert.ErrorIs(t, err, errors.ErrAppNotFound)
	assert.ErrorIs(t, r.Deregister("com.example.app"), errors.ErrAppNotFound)

	events, err := journal.Drain()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, telemetry.EventDeregister, events[1].Type)
}

func TestRegistry_GetByDir(t *testing.T) {
	r := New(NewMemoryStore(), NewMemoryStore(), WithAdmin(false))
	app, err := r.Register(testApp(t, "com.example.app"))
	require.NoError(t, err)

	got, err := r.GetByDir(app.Dir)
	require.NoError(t, err)
	assert.Equal(t, app.ID, got.ID)

	_, err = r.GetByDir(t.TempDir())
	assert.ErrorIs(t, err, errors.ErrAppNotFound)
}

func TestRegistry_UpdatesURL(t *testing.T) {
	r := New(NewMemoryStore(), NewMemoryStore())
	app := testApp(t, "com.example.app")

	u, err := r.UpdatesURL(app, phase.EA)
	require.NoError(t, err)
	assert.Equal(t, "https://updates.example.com/ea/updates.xml", u.String())

	app.UpdatesURL = ""
	_, err = r.UpdatesURL(app, phase.Stable)
	assert.ErrorIs(t, err, errors.ErrNoUpdatesURL)
}

func TestRegistry_UserID(t *testing.T) {
	r := New(NewMemoryStore(), NewMemoryStore())
	first, err := r.UserID()
	require.NoError(t, err)
	second, err := r.UserID()
	require.NoError(t, err)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestPreferenceContext(t *testing.T) {
	r := New(NewMemoryStore(), NewMemoryStore())
	app := testApp(t, "com.example.app")

	version := "1.2.0"
	ctx := r.Context(app, func() string { return version })

	assert.Equal(t, "apps/com/example/app", ctx.Node().Path())
	assert.Equal(t, phase.Stable, ctx.Phase())
	version = "0.9.0"
	assert.Equal(t, phase.Continuous, ctx.Phase())

	require.NoError(t, ctx.SetPhase(phase.EA))
	assert.Equal(t, phase.EA, ctx.Phase())

	assert.Zero(t, ctx.UpdatesDeferredUntil())
	assert.True(t, ctx.DeferredUntil().IsZero())
	when := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ctx.SetUpdatesDeferredUntil(when.UnixMilli()))
	assert.True(t, ctx.DeferredUntil().Equal(when))

	assert.True(t, ctx.AutomaticUpdates())
	require.NoError(t, ctx.SetAutomaticUpdates(false))
	assert.False(t, ctx.AutomaticUpdates())

	_, err := ctx.Scheduler()
	assert.ErrorIs(t, err, errors.ErrNoScheduler)
}

func TestPreferenceContext_Options(t *testing.T) {
	sched := schedule.NewTimerScheduler()
	defer sched.Close()

	ctx := NewPreferenceContext(NodeOf(NewMemoryStore(), "apps/x"), nil,
		WithDefaultPhase(phase.EA),
		WithScheduler(sched),
		WithAutomaticUpdates(false),
	)
	assert.Equal(t, phase.EA, ctx.Phase())
	assert.False(t, ctx.AutomaticUpdates())
	assert.Empty(t, ctx.Version())

	got, err := ctx.Scheduler()
	require.NoError(t, err)
	assert.Same(t, sched, got)
}
