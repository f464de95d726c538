package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"
)

// itemTag discriminates the recognized per-item field vocabulary. Tags
// outside this closed set are ignored while inside an item.
type itemTag int

const (
	tagNone itemTag = iota
	tagTitle
	tagLink
	tagDescription
	tagPrice
	tagPubDate
	tagImageLink
	tagShortDescription
	tagEventFlag
)

var itemTags = map[string]itemTag{
	"title":         tagTitle,
	"link":          tagLink,
	"description":   tagDescription,
	"price":         tagPrice,
	"pubdate":       tagPubDate,
	"thumnailimage": tagImageLink,
	"subtitle":      tagShortDescription,
	"wootoff":       tagEventFlag,
}

// DealHandler is a forward-only streaming parser for the loosely
// structured deal feeds. It tolerates unexpected structure: unrecognized
// tags are skipped, invalid URLs and dates degrade to unset fields, and
// only a stream the tokenizer cannot read at all is an error. Items
// without a valid publish date cannot be ordered and are discarded.
type DealHandler struct {
	inItem      bool
	currentTag  itemTag
	currentItem Item
	currentDate *time.Time
	buf         strings.Builder

	items map[time.Time]Item

	now func() time.Time
}

func NewDealHandler() *DealHandler {
	return &DealHandler{
		items: make(map[time.Time]Item),
		now:   time.Now,
	}
}

func (h *DealHandler) Parse(r io.Reader) error {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.CharsetReader = charsetReader

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnreadable, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			h.startElement(strings.ToLower(strings.TrimSpace(t.Name.Local)))
		case xml.CharData:
			h.characters(string(t))
		case xml.EndElement:
			h.endElement(strings.ToLower(strings.TrimSpace(t.Name.Local)))
		}
	}
}

func (h *DealHandler) startElement(tag string) {
	h.buf.Reset()

	if tag == "item" {
		h.inItem = true
		h.currentItem = Item{}
		return
	}

	h.currentTag = itemTags[tag]
}

func (h *DealHandler) characters(chars string) {
	if h.inItem && h.currentTag != tagNone {
		h.buf.WriteString(chars)
	}
}

func (h *DealHandler) endElement(tag string) {
	if h.inItem {
		if tag == "item" {
			h.inItem = false
			if h.currentDate != nil {
				// Commit a value copy; equal dates last-write-wins.
				h.items[*h.currentDate] = h.currentItem
				h.currentDate = nil
			}
		} else if h.currentTag != tagNone {
			chars := strings.TrimSpace(h.buf.String())
			if chars != "" {
				h.commitField(chars)
			}
		}
	}
	h.currentTag = tagNone
}

func (h *DealHandler) commitField(chars string) {
	switch h.currentTag {
	case tagTitle:
		h.currentItem.Title = chars
	case tagLink:
		if u := parseAbsoluteURL(chars); u != nil {
			h.currentItem.Link = u
		}
	case tagImageLink:
		if u := parseAbsoluteURL(chars); u != nil {
			h.currentItem.ImageLink = u
		}
	case tagDescription:
		h.currentItem.Description = chars
	case tagPrice:
		h.currentItem.SalePrice = chars
	case tagShortDescription:
		h.currentItem.ShortDescription = chars
	case tagEventFlag:
		// No special event running means the deal must eventually
		// expire even if the feed never says so again.
		if strings.ToLower(chars) == "false" {
			exp := h.now().Add(time.Hour)
			h.currentItem.Expiration = &exp
		}
	case tagPubDate:
		d, err := parseRFC822Date(chars)
		if err != nil {
			// Some sources send junk like a bare "MDT" here.
			slog.Warn("Unparseable publish date", "data", chars, "error", err)
		} else {
			h.currentDate = &d
		}
	}
}

// CurrentItem returns the item with the newest publish date, or nil if
// nothing was committed. When the item carries no structured price, a
// best-effort recovery from its description is attempted.
func (h *DealHandler) CurrentItem() *Item {
	item, ok := newestItem(h.items)
	if !ok {
		return nil
	}
	if item.SalePrice == "" {
		item.SalePrice = recoverPrice(item.Description)
	}
	return &item
}

func parseAbsoluteURL(s string) *url.URL {
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() {
		return nil
	}
	return u
}

// newestItem selects the max-date entry; the returned Item is a copy.
func newestItem(items map[time.Time]Item) (Item, bool) {
	var max time.Time
	found := false
	for d := range items {
		if !found || d.After(max) {
			max = d
			found = true
		}
	}
	if !found {
		return Item{}, false
	}
	return items[max], true
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
}

func parseRFC822Date(s string) (time.Time, error) {
	for _, layout := range pubDateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("no RFC-822 layout matches %q", s)
}
