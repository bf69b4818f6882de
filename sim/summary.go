package sim

import (
	"math"
	"time"
)

// minComparisonSamples is the history length after which the relative
// latency and throughput figures are reported; before that they read 0.
const minComparisonSamples = 5

// Comparison is the side-by-side readout of the two policies.
type Comparison struct {
	Elapsed               string  `json:"elapsed"` // HH:MM:SS of simulated time
	LatencyImprovementPct float64 `json:"latencyImprovementPct"`
	ThroughputGainPct     float64 `json:"throughputGainPct"`
	SuccessDiff           float64 `json:"successDiff"` // adaptive minus traditional, percentage points
	TraditionalP95        float64 `json:"traditionalP95"`
	AdaptiveP95           float64 `json:"adaptiveP95"`
}

// Compare derives the comparison readout from s.
func Compare(s SimulationState) Comparison {
	trad, adaptive := s.Traditional.Stats, s.Adaptive.Stats
	c := Comparison{
		Elapsed:        FormatElapsed(s.ElapsedTime),
		SuccessDiff:    adaptive.SuccessRate - trad.SuccessRate,
		TraditionalP95: trad.P95Latency(TraditionalP95Multiplier),
		AdaptiveP95:    adaptive.P95Latency(AdaptiveP95Multiplier),
	}
	if len(s.History) > minComparisonSamples {
		c.LatencyImprovementPct = (1 - adaptive.AvgLatency/math.Max(1, trad.AvgLatency)) * 100
		c.ThroughputGainPct = adaptive.Throughput/math.Max(1, trad.Throughput)*100 - 100
	}
	return c
}

// FormatElapsed renders a tick count as HH:MM:SS, one tick per second,
// wrapping at 24 hours.
func FormatElapsed(ticks int64) string {
	return time.Unix(ticks, 0).UTC().Format("15:04:05")
}
