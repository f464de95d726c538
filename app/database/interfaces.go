package database

import (
	"time"

	"github.com/chemlab/dealwatch/app/feed"
)

// SiteState is the durable last-notified record for one site.
type SiteState struct {
	SiteID     string
	Title      string
	Link       string
	SalePrice  string
	NotifiedAt time.Time
}

// StateRepository is the only mutating surface the change detector sees.
// UpdateIfChanged is a single atomic compare-and-update: it reports true
// and persists the identity exactly when it differs from the stored one.
type StateRepository interface {
	Get(siteID string) (*SiteState, error)
	UpdateIfChanged(siteID string, identity feed.Identity) (bool, error)
	Reset(siteID string) error
	Count() (int, error)
}
