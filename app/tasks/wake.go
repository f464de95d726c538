package tasks

import "sync"

// WakeGuard is held while work is in flight so process shutdown can wait
// for running checks instead of cutting them off. Release is deferred on
// every task exit path.
type WakeGuard struct {
	wg sync.WaitGroup
}

func (g *WakeGuard) Acquire() {
	g.wg.Add(1)
}

func (g *WakeGuard) Release() {
	g.wg.Done()
}

// Wait blocks until every acquired hold has been released.
func (g *WakeGuard) Wait() {
	g.wg.Wait()
}
