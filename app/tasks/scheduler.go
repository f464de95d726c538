package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chemlab/dealwatch/app/notify"
	"github.com/chemlab/dealwatch/app/site"
)

// checkTimeout bounds one site check end to end. The fetch carries its
// own shorter timeout, so this mostly backstops parse and store time.
const checkTimeout = time.Minute

var _ SchedulerInterface = (*Scheduler)(nil)

// Scheduler drives periodic check cycles. Each cycle spawns one
// fire-and-forget goroutine per enabled site; sites never block each
// other and a failing site affects nothing but itself. Stop only
// prevents future dispatch; in-flight checks run to completion under
// their own timeouts.
type Scheduler struct {
	registry SiteRegistry
	fetcher  Fetcher
	detector *ChangeDetector
	notifier notify.Notifier
	gate     NetworkGate
	guard    *WakeGuard

	interval  time.Duration
	keepAwake bool

	mu     sync.Mutex
	cancel context.CancelFunc
	loopWG sync.WaitGroup
}

func NewScheduler(registry SiteRegistry, fetcher Fetcher, detector *ChangeDetector,
	notifier notify.Notifier, gate NetworkGate, interval time.Duration, keepAwake bool) *Scheduler {
	return &Scheduler{
		registry:  registry,
		fetcher:   fetcher,
		detector:  detector,
		notifier:  notifier,
		gate:      gate,
		guard:     &WakeGuard{},
		interval:  interval,
		keepAwake: keepAwake,
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if s.keepAwake {
		s.guard.Acquire()
	}

	s.loopWG.Add(1)
	go s.loop(ctx)

	slog.Info("Site checker started", "interval", s.interval)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.cancel = nil
	s.mu.Unlock()

	s.loopWG.Wait()

	if s.keepAwake {
		s.guard.Release()
	}

	slog.Info("Site checker stopped")
}

func (s *Scheduler) Restart() {
	s.Stop()
	s.Start()
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// CheckNow runs one immediate cycle regardless of the timer.
func (s *Scheduler) CheckNow() {
	s.runCycle()
}

// EnableSite flips the site on and checks it right away.
func (s *Scheduler) EnableSite(id string) error {
	if err := s.registry.SetEnabled(id, true); err != nil {
		return err
	}

	enabled, err := s.registry.Get(id)
	if err != nil {
		return err
	}

	if s.gate.Online() {
		s.dispatch(*enabled)
	}
	return nil
}

// DisableSite flips the site off and clears its stored state, so a
// re-enabled site notifies again on its current item.
func (s *Scheduler) DisableSite(id string) error {
	if err := s.registry.SetEnabled(id, false); err != nil {
		return err
	}

	slog.Info("Resetting state for disabled site", "site", id)
	return s.detector.Reset(id)
}

// Wait blocks until all in-flight checks have finished. Used at process
// shutdown, after Stop.
func (s *Scheduler) Wait() {
	s.guard.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.loopWG.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle()
		}
	}
}

func (s *Scheduler) runCycle() {
	if !s.gate.Online() {
		slog.Debug("Network unreachable, skipping cycle")
		return
	}

	if !s.registry.AnyEnabled() {
		slog.Debug("No sites enabled, skipping cycle")
		return
	}

	for _, enabled := range s.registry.Enabled() {
		s.dispatch(enabled)
	}
}

func (s *Scheduler) dispatch(target site.Site) {
	task := NewCheckSiteTask(target, s.fetcher, s.detector, s.notifier)

	s.guard.Acquire()
	go func() {
		defer s.guard.Release()

		task.Start()

		// Deliberately not derived from the scheduler context: a stop
		// signal must not cancel work already in flight.
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		if err := task.Execute(ctx); err != nil {
			slog.Error("Site check failed",
				"site", target.ID,
				"duration", task.GetDuration(),
				"error", err)
		}
	}()
}
