package session

import (
	"context"
	"time"

	"github.com/inference-sim/routesim/sim"
)

// TickFunc observes each state produced by the driver.
type TickFunc func(state sim.SimulationState)

// Driver invokes Session.Step at a fixed cadence while the session is
// running.
type Driver struct {
	Session  *Session
	Interval time.Duration
	// BeforeTick, when set, runs before every step with the tick about to
	// be produced. Scheduled chaos events hook in here.
	BeforeTick func(nextTick int64)
	OnTick     TickFunc
}

// Run steps the session until ctx is done, the session is paused, or
// maxTicks ticks have been produced (maxTicks <= 0 means unbounded).
// A zero Interval steps back-to-back. Cancellation leaves the session's
// state intact. It returns the number of ticks produced.
func (d *Driver) Run(ctx context.Context, maxTicks int64) int64 {
	var tick <-chan time.Time
	if d.Interval > 0 {
		ticker := time.NewTicker(d.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var produced int64
	for maxTicks <= 0 || produced < maxTicks {
		if ctx.Err() != nil || !d.Session.Running() {
			return produced
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return produced
			case <-tick:
			}
		}

		if d.BeforeTick != nil {
			d.BeforeTick(d.Session.Snapshot().ElapsedTime + 1)
		}
		state := d.Session.Step()
		if !state.IsRunning {
			return produced
		}
		produced++
		if d.OnTick != nil {
			d.OnTick(state)
		}
	}
	return produced
}
