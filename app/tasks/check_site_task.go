package tasks

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/chemlab/dealwatch/app/feed"
	"github.com/chemlab/dealwatch/app/notify"
	"github.com/chemlab/dealwatch/app/site"
)

// CheckSiteTask runs one full check for one site: fetch, parse, evaluate
// against stored state, and notify when the newest item genuinely
// changed. Any failure is isolated to this site and this cycle.
type CheckSiteTask struct {
	Task
	Site     site.Site
	fetcher  Fetcher
	detector *ChangeDetector
	notifier notify.Notifier
}

func NewCheckSiteTask(s site.Site, fetcher Fetcher, detector *ChangeDetector, notifier notify.Notifier) *CheckSiteTask {
	return &CheckSiteTask{
		Task:     NewTask(TaskTypeCheckSite, s.ID),
		Site:     s,
		fetcher:  fetcher,
		detector: detector,
		notifier: notifier,
	}
}

func (t *CheckSiteTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	data, err := t.fetcher.Fetch(ctx, t.Site.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	handler, err := feed.NewHandler(t.Site.Parser)
	if err != nil {
		return err
	}

	if err := handler.Parse(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to parse feed: %w", err)
	}

	item := handler.CurrentItem()

	decision, err := t.detector.Evaluate(t.Site.ID, item)
	if err != nil {
		return err
	}

	if decision == Notify {
		t.notifier.Notify(t.Site, *item)
		slog.Info("Task completed",
			"type", "CheckSite",
			"site", t.Site.ID,
			"duration", t.GetDuration(),
			"notified", true,
			"item", item.Title)
	} else {
		slog.Debug("Task completed",
			"type", "CheckSite",
			"site", t.Site.ID,
			"duration", t.GetDuration(),
			"notified", false)
	}

	return nil
}
