package feed

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// RSSHandler parses well-formed RSS/Atom sources through gofeed. Sites
// whose feeds follow the standards bind to this handler instead of the
// tolerant deal parser; the current-item policy is the same.
type RSSHandler struct {
	items map[time.Time]Item
}

func NewRSSHandler() *RSSHandler {
	return &RSSHandler{
		items: make(map[time.Time]Item),
	}
}

func (h *RSSHandler) Parse(r io.Reader) error {
	parsed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	for _, entry := range parsed.Items {
		if entry.PublishedParsed == nil {
			// Undated entries cannot be ordered or deduped.
			continue
		}

		item := Item{
			Title:       strings.TrimSpace(entry.Title),
			Description: entry.Description,
		}
		if u := parseAbsoluteURL(entry.Link); u != nil {
			item.Link = u
		}
		if entry.Image != nil {
			if u := parseAbsoluteURL(entry.Image.URL); u != nil {
				item.ImageLink = u
			}
		}

		h.items[entry.PublishedParsed.UTC()] = item
	}

	return nil
}

func (h *RSSHandler) CurrentItem() *Item {
	item, ok := newestItem(h.items)
	if !ok {
		return nil
	}
	if item.SalePrice == "" {
		item.SalePrice = recoverPrice(item.Description)
	}
	return &item
}
