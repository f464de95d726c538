package feed

import (
	"net/url"
	"time"
)

// Item is the normalized deal record extracted from one feed entry.
// Handlers commit value copies into their result collections, so an Item
// handed out of a handler is never aliased by parser working state.
type Item struct {
	Title            string
	Link             *url.URL
	ImageLink        *url.URL
	Description      string
	ShortDescription string

	// Prices are kept as raw strings to preserve source formatting.
	SalePrice   string
	RetailPrice string
	Savings     string

	Expiration *time.Time
}

// Complete reports whether the item is usable downstream. Incomplete
// items must never reach the change detector or the notifier.
func (i *Item) Complete() bool {
	return i.Title != "" && i.Link != nil
}

// Identity is the change-detection tuple. The feeds carry no stable
// numeric ID, so title+link+price stands in for one.
type Identity struct {
	Title     string
	Link      string
	SalePrice string
}

func (i *Item) Identity() Identity {
	id := Identity{
		Title:     i.Title,
		SalePrice: i.SalePrice,
	}
	if i.Link != nil {
		id.Link = i.Link.String()
	}
	return id
}
