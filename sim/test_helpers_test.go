package sim

import "time"

// constSource always returns the same draw. A zero source yields zero
// latency jitter and always picks the first node in WinnerTakeAll.
type constSource float64

func (c constSource) Float64() float64 { return float64(c) }

// seqSource replays vals in order and then repeats the last value.
type seqSource struct {
	vals []float64
	n    int
}

func (s *seqSource) Float64() float64 {
	i := s.n
	if i >= len(s.vals) {
		i = len(s.vals) - 1
	}
	s.n++
	return s.vals[i]
}

// steppingClock returns base advanced by one second per call.
func steppingClock(base time.Time) func() time.Time {
	calls := 0
	return func() time.Time {
		t := base.Add(time.Duration(calls) * time.Second)
		calls++
		return t
	}
}

func fixedClock() time.Time {
	return time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

// runTicks starts s and ticks it n times with the same overrides.
func runTicks(e *Engine, s SimulationState, overrides FailureOverrides, n int) SimulationState {
	s = s.WithRunning(true)
	for i := 0; i < n; i++ {
		s = e.Tick(s, overrides)
	}
	return s
}
