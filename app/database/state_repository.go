package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/chemlab/dealwatch/app/feed"
)

var _ StateRepository = (*SiteStateRepository)(nil)

// SiteStateRepository persists per-site last-notified state.
type SiteStateRepository struct {
	db *DB
}

func NewSiteStateRepository(db *DB) *SiteStateRepository {
	return &SiteStateRepository{db: db}
}

func (r *SiteStateRepository) Get(siteID string) (*SiteState, error) {
	var state SiteState
	err := r.db.QueryRow(`
		SELECT site_id, title, link, sale_price, notified_at
		FROM site_state
		WHERE site_id = ?
	`, siteID).Scan(&state.SiteID, &state.Title, &state.Link, &state.SalePrice, &state.NotifiedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site state: %w", err)
	}

	return &state, nil
}

// UpdateIfChanged compares the candidate identity against the stored one
// and persists it when absent or different, all inside one transaction.
func (r *SiteStateRepository) UpdateIfChanged(siteID string, identity feed.Identity) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var title, link, salePrice string
	err = tx.QueryRow(`
		SELECT title, link, sale_price FROM site_state WHERE site_id = ?
	`, siteID).Scan(&title, &link, &salePrice)

	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to read site state: %w", err)
	}

	if err == nil && title == identity.Title && link == identity.Link && salePrice == identity.SalePrice {
		return false, nil
	}

	_, err = tx.Exec(`
		INSERT INTO site_state (site_id, title, link, sale_price, notified_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (site_id) DO UPDATE SET
			title = excluded.title,
			link = excluded.link,
			sale_price = excluded.sale_price,
			notified_at = excluded.notified_at
	`, siteID, identity.Title, identity.Link, identity.SalePrice, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("failed to write site state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit site state: %w", err)
	}

	return true, nil
}

// Reset clears a site's state, used when the user disables a site.
func (r *SiteStateRepository) Reset(siteID string) error {
	_, err := r.db.Exec(`DELETE FROM site_state WHERE site_id = ?`, siteID)
	if err != nil {
		return fmt.Errorf("failed to reset site state: %w", err)
	}
	return nil
}

func (r *SiteStateRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM site_state`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count site states: %w", err)
	}
	return count, nil
}
