package sim

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextLatency_FailedNode_ReturnsPenaltyWithoutDrawing(t *testing.T) {
	// GIVEN a failed node and a source that records draws
	src := &seqSource{vals: []float64{0.3}}
	node := ServiceNode{Kind: KindCache, Load: 0, Failed: true}

	// WHEN latency is sampled
	got := NextLatency(node, LatencyVolatility, src)

	// THEN the fixed penalty is returned and no randomness is consumed
	assert.Equal(t, FailedLatency, got)
	assert.Equal(t, 0, src.n)
}

func TestNextLatency_ZeroJitter_BasePlusLoadFactor(t *testing.T) {
	tests := []struct {
		kind NodeKind
		load float64
		want float64
	}{
		{KindCache, 0, 15},
		{KindAuth, 10, 50},
		{KindCompute, 40, 105},
		{KindData, 100, 170},
		{NodeKind("unknown"), 0, 120},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := NextLatency(ServiceNode{Kind: tt.kind, Load: tt.load}, LatencyVolatility, constSource(0))
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestNextLatency_LargeNegativeJitter_ClampedToFloor(t *testing.T) {
	// GIVEN draws that produce z ≈ -6.8 (u ≈ 1e-10, v = 0.5)
	src := &seqSource{vals: []float64{1 - 1e-10, 0.5}}

	// WHEN a cache node is sampled
	got := NextLatency(ServiceNode{Kind: KindCache}, LatencyVolatility, src)

	// THEN latency never drops below the floor
	assert.Equal(t, MinLatency, got)
	assert.Equal(t, 2, src.n, "Box-Muller consumes exactly two uniforms")
}

func TestRandomNormal_MomentsMatchParameters(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n = 50000
	sum, sumSq := 0.0, 0.0
	for i := 0; i < n; i++ {
		z := randomNormal(rng, 0, 20)
		sum += z
		sumSq += z * z
	}
	mean := sum / n
	std := math.Sqrt(sumSq/n - mean*mean)
	assert.InDelta(t, 0, mean, 0.5)
	assert.InDelta(t, 20, std, 0.5)
}

func TestBaseLatency_KnownKinds(t *testing.T) {
	assert.Equal(t, 15.0, BaseLatency(KindCache))
	assert.Equal(t, 45.0, BaseLatency(KindAuth))
	assert.Equal(t, 85.0, BaseLatency(KindCompute))
	assert.Equal(t, 120.0, BaseLatency(KindData))
}
