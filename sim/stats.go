package sim

import "math"

// Smoothing constants for the rolling statistics. Each is the weight kept
// from the previous estimate: x ← x*decay + sample*(1-decay).
const (
	successDecay    = 0.95
	latencyDecay    = 0.9
	throughputDecay = 0.9

	// maxThroughputSample caps the per-tick throughput sample before scaling.
	maxThroughputSample = 1000.0
)

// P95 display multipliers. These approximate a tail latency from the
// running average; they are not percentiles.
const (
	TraditionalP95Multiplier = 1.8
	AdaptiveP95Multiplier    = 1.2
)

// RoutingStats holds one policy's exponentially smoothed running estimates.
// No sample buffer is kept.
type RoutingStats struct {
	AvgLatency    float64 `json:"avgLatency"`    // ms
	Throughput    float64 `json:"throughput"`    // req/s
	SuccessRate   float64 `json:"successRate"`   // percent
	TotalRequests int64   `json:"totalRequests"` // monotonic
}

// NewRoutingStats returns zeroed statistics with a 100% success rate.
func NewRoutingStats() RoutingStats {
	return RoutingStats{SuccessRate: 100}
}

// P95Latency returns the display approximation avgLatency*multiplier.
func (s RoutingStats) P95Latency(multiplier float64) float64 {
	return s.AvgLatency * multiplier
}

// observe folds the outcome of routing one request to selected into the
// running estimates and returns the tick's success signal in [0, 1].
func (s *RoutingStats) observe(selected ServiceNode, profile SuccessProfile) float64 {
	s.TotalRequests++

	success := profile.successSignal(selected)
	s.SuccessRate = clamp(s.SuccessRate*successDecay+success*100*(1-successDecay), 0, 100)

	s.AvgLatency = s.AvgLatency*latencyDecay + selected.Latency*(1-latencyDecay)

	current := 0.0
	if !selected.Failed {
		current = math.Min(maxThroughputSample, maxThroughputSample/math.Max(1, s.AvgLatency)) * profile.ThroughputScale
	}
	s.Throughput = s.Throughput*throughputDecay + current*(1-throughputDecay)
	return success
}
