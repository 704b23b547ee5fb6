package update

import (
	"context"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/phase"
)

// UpdateService is the surface hosts program against, so an application
// without update support can swap in NoopService.
type UpdateService interface {
	CheckForUpdate(ctx context.Context) error
	Update(ctx context.Context) error
	DeferUpdate() error
	RescheduleCheck() error
	Shutdown()
	Phases() []phase.Phase
	AvailableVersion() (string, bool)
	NeedsUpdating() bool
	IsUpdating() bool
	UpdatesEnabled() bool
	Context() AppContext
	SetOnAvailableVersion(fn func(string))
	SetOnBusy(fn func(bool))
	AddDownloadListener(fn DownloadListener) ListenerID
	RemoveDownloadListener(id ListenerID)
}

var (
	_ UpdateService = (*Service)(nil)
	_ UpdateService = (*NoopService)(nil)
)

// NoopService is the UpdateService of an application that cannot update.
type NoopService struct {
	appCtx AppContext
}

// NewNoopService returns a NoopService reporting appCtx as its context.
func NewNoopService(appCtx AppContext) *NoopService {
	return &NoopService{appCtx: appCtx}
}

func (n *NoopService) CheckForUpdate(context.Context) error { return nil }

// Update always fails with ErrUnsupported.
func (n *NoopService) Update(context.Context) error { return errors.ErrUnsupported }

func (n *NoopService) DeferUpdate() error { return nil }
func (n *NoopService) RescheduleCheck() error { return nil }
func (n *NoopService) Shutdown() {}
func (n *NoopService) Phases() []phase.Phase { return nil }
func (n *NoopService) AvailableVersion() (string, bool) { return "", false }
func (n *NoopService) NeedsUpdating() bool { return false }
func (n *NoopService) IsUpdating() bool { return false }
func (n *NoopService) UpdatesEnabled() bool { return false }
func (n *NoopService) Context() AppContext { return n.appCtx }
func (n *NoopService) SetOnAvailableVersion(func(string)) {}
func (n *NoopService) SetOnBusy(func(bool)) {}
func (n *NoopService) AddDownloadListener(DownloadListener) ListenerID { return 0 }
func (n *NoopService) RemoveDownloadListener(ListenerID) {}
