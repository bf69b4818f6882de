package sim

import "math"

const (
	// FailedLatency is the fixed penalty reported by a failed node.
	FailedLatency = 3000.0
	// MinLatency is the floor for a healthy node's sampled latency.
	MinLatency = 5.0
	// LatencyVolatility is the jitter standard deviation used by both policies.
	LatencyVolatility = 20.0
	// loadLatencyScale is the latency added by a fully loaded node (ms).
	loadLatencyScale = 50.0
)

// baseLatency maps a node kind to its unloaded service time in ms.
var baseLatency = map[NodeKind]float64{
	KindCache:   15,
	KindAuth:    45,
	KindCompute: 85,
	KindData:    120,
}

// BaseLatency returns the latency baseline for kind. Unknown kinds use the
// data-store baseline.
func BaseLatency(kind NodeKind) float64 {
	if b, ok := baseLatency[kind]; ok {
		return b
	}
	return baseLatency[KindData]
}

// NextLatency samples a fresh latency for node. The model is memoryless:
// every call draws new jitter regardless of the node's previous latency.
// Failed nodes always report FailedLatency and consume no randomness.
func NextLatency(node ServiceNode, volatility float64, rng RandSource) float64 {
	if node.Failed {
		return FailedLatency
	}
	loadFactor := (node.Load / 100) * loadLatencyScale
	jitter := randomNormal(rng, 0, volatility)
	return math.Max(MinLatency, BaseLatency(node.Kind)+loadFactor+jitter)
}

// randomNormal draws from Normal(mean, stdDev) with the Box–Muller transform.
// u is taken from (0, 1] so the logarithm stays finite.
func randomNormal(rng RandSource, mean, stdDev float64) float64 {
	u := 1 - rng.Float64()
	v := rng.Float64()
	z := math.Sqrt(-2.0*math.Log(u)) * math.Cos(2.0*math.Pi*v)
	return z*stdDev + mean
}
