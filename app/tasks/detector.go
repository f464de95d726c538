package tasks

import (
	"fmt"
	"sync"

	"github.com/chemlab/dealwatch/app/database"
	"github.com/chemlab/dealwatch/app/feed"
)

// Decision is the outcome of evaluating a candidate item for a site.
type Decision int

const (
	NoNotify Decision = iota
	Notify
)

// ChangeDetector decides whether a freshly parsed item is a genuine
// change for its site. Evaluations for the same site are serialized by a
// per-site mutex, so two concurrent checks can never both observe
// "different" and both notify; state stays partitioned per site, so
// different sites never contend.
type ChangeDetector struct {
	store database.StateRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewChangeDetector(store database.StateRepository) *ChangeDetector {
	return &ChangeDetector{
		store: store,
		locks: make(map[string]*sync.Mutex),
	}
}

// Evaluate runs the compare-and-update against the stored state.
// Incomplete candidates short-circuit to NoNotify with no mutation.
func (d *ChangeDetector) Evaluate(siteID string, item *feed.Item) (Decision, error) {
	if item == nil || !item.Complete() {
		return NoNotify, nil
	}

	lock := d.siteLock(siteID)
	lock.Lock()
	defer lock.Unlock()

	changed, err := d.store.UpdateIfChanged(siteID, item.Identity())
	if err != nil {
		return NoNotify, fmt.Errorf("failed to update site state: %w", err)
	}

	if changed {
		return Notify, nil
	}
	return NoNotify, nil
}

// Reset clears the site's stored state. Explicitly separate from
// Evaluate; triggered when the user disables a site.
func (d *ChangeDetector) Reset(siteID string) error {
	lock := d.siteLock(siteID)
	lock.Lock()
	defer lock.Unlock()

	return d.store.Reset(siteID)
}

func (d *ChangeDetector) siteLock(siteID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()

	lock, ok := d.locks[siteID]
	if !ok {
		lock = &sync.Mutex{}
		d.locks[siteID] = lock
	}
	return lock
}
