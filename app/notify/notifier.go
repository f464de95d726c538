package notify

import (
	"fmt"
	"log/slog"

	"github.com/chemlab/dealwatch/app/feed"
	"github.com/chemlab/dealwatch/app/site"
)

// Options are user notification preferences, passed through opaquely
// from configuration to whatever renders the notification.
type Options struct {
	Vibrate bool
	Light   bool
}

// Notifier receives exactly one call per genuine item change. The item
// is guaranteed complete and its link already carries the site's
// affiliation parameter.
type Notifier interface {
	Notify(s site.Site, item feed.Item)
}

var _ Notifier = (*LogNotifier)(nil)

// LogNotifier is the in-process notification sink. Delivery chrome
// (badges, sounds, push) lives outside the core.
type LogNotifier struct {
	opts Options
}

func NewLogNotifier(opts Options) *LogNotifier {
	return &LogNotifier{opts: opts}
}

func (n *LogNotifier) Notify(s site.Site, item feed.Item) {
	link := ""
	if item.Link != nil {
		link = s.AffiliateLink(item.Link).String()
	}

	slog.Info("New deal",
		"site", s.ID,
		"title", item.Title,
		"link", link,
		"price", PriceLine(item),
		"vibrate", n.opts.Vibrate,
		"light", n.opts.Light)
}

// PriceLine renders the notification price string. Savings and retail
// price come from source-specific post-processing and may be absent.
func PriceLine(item feed.Item) string {
	if item.SalePrice == "" {
		return ""
	}
	if item.Savings != "" && item.RetailPrice != "" {
		return fmt.Sprintf("$%s (%s%% Off! Regularly: $%s)", item.SalePrice, item.Savings, item.RetailPrice)
	}
	return "$" + item.SalePrice
}
