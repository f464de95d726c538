package tasks

import (
	"context"

	"github.com/chemlab/dealwatch/app/site"
)

// SchedulerInterface is the control surface exposed to the HTTP API and
// the main wiring: the four global signals plus the two per-site ones.
type SchedulerInterface interface {
	Start()
	Stop()
	Restart()
	CheckNow()
	EnableSite(id string) error
	DisableSite(id string) error
	Running() bool
}

// Fetcher retrieves raw feed bytes for one source URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// SiteRegistry is the catalog view the scheduler needs.
type SiteRegistry interface {
	Get(id string) (*site.Site, error)
	Enabled() []site.Site
	AnyEnabled() bool
	SetEnabled(id string, enabled bool) error
}
