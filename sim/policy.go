package sim

import (
	"fmt"
	"math"
)

// Policy names accepted by NewRoutingPolicy.
const (
	PolicyRoundRobin    = "round-robin"
	PolicyWinnerTakeAll = "winner-take-all"
)

// ValidRoutingPolicies is the set of recognized routing policy names.
var ValidRoutingPolicies = map[string]bool{PolicyRoundRobin: true, PolicyWinnerTakeAll: true}

// IsValidRoutingPolicy returns true if name is a recognized routing policy.
func IsValidRoutingPolicy(name string) bool {
	return ValidRoutingPolicies[name]
}

// SuccessProfile holds the per-policy constants used when scoring a tick.
type SuccessProfile struct {
	OverloadThreshold float64 // load strictly above this counts as a partial success
	OverloadSuccess   float64 // success signal for an overloaded, healthy node
	ThroughputScale   float64 // multiplier on the per-tick throughput sample
	P95Multiplier     float64 // display-only tail latency approximation
}

// successSignal is 0 for a failed node, OverloadSuccess for an overloaded
// one and 1 otherwise.
func (p SuccessProfile) successSignal(node ServiceNode) float64 {
	if node.Failed {
		return 0
	}
	if node.Load > p.OverloadThreshold {
		return p.OverloadSuccess
	}
	return 1.0
}

// RoutingPolicy picks one node per tick and optionally learns from the
// outcome. Policies hold no per-run state; anything that must persist
// across ticks lives in PolicyState so that states stay replaceable values.
type RoutingPolicy interface {
	// Name returns the policy's registered name.
	Name() string
	// Select returns the index of the node that receives this tick's request.
	// It may update bookkeeping fields of ps (e.g. the round-robin cursor).
	Select(ps *PolicyState, rng RandSource) int
	// Learn runs after load and latency have been refreshed for every node.
	Learn(nodes []ServiceNode, winner int)
	// Profile returns the policy's scoring constants.
	Profile() SuccessProfile
}

// NewRoutingPolicy creates a routing policy by name.
// Panics on unrecognized names.
func NewRoutingPolicy(name string) RoutingPolicy {
	if !IsValidRoutingPolicy(name) {
		panic(fmt.Sprintf("unknown routing policy %q", name))
	}
	switch name {
	case PolicyRoundRobin:
		return &RoundRobin{}
	case PolicyWinnerTakeAll:
		return NewWinnerTakeAll()
	default:
		panic(fmt.Sprintf("unhandled routing policy %q", name))
	}
}

// RoundRobin cycles through the roster in fixed order. It has no failure
// awareness: a failed node keeps receiving every n-th request.
type RoundRobin struct{}

// Name implements RoutingPolicy.
func (rr *RoundRobin) Name() string { return PolicyRoundRobin }

// Select implements RoutingPolicy. The cursor advances unconditionally.
func (rr *RoundRobin) Select(ps *PolicyState, _ RandSource) int {
	if len(ps.Nodes) == 0 {
		panic("RoundRobin.Select: empty roster")
	}
	ps.CursorIndex = (ps.CursorIndex + 1) % len(ps.Nodes)
	return ps.CursorIndex
}

// Learn implements RoutingPolicy. Round-robin does not learn.
func (rr *RoundRobin) Learn([]ServiceNode, int) {}

// Profile implements RoutingPolicy.
func (rr *RoundRobin) Profile() SuccessProfile {
	return SuccessProfile{
		OverloadThreshold: 90,
		OverloadSuccess:   0.8,
		ThroughputScale:   5,
		P95Multiplier:     TraditionalP95Multiplier,
	}
}

// WinnerTakeAll selects one node per tick with probability proportional to
// exp(Sharpness*weight) and adjusts the winner's weight with a local,
// STDP-inspired rule: low latency strengthens it, high latency or failure
// weakens it. Losers decay slowly toward the floor.
type WinnerTakeAll struct {
	Sharpness     float64 // exponent applied to weights before sampling
	TargetLatency float64 // ms; latencies below this strengthen the winner
	LearningRate  float64
	FailureDelta  float64 // replaces the latency delta for failed nodes
	LoserDecay    float64 // per-tick multiplier for non-winners
}

// NewWinnerTakeAll returns the policy with its standard constants.
func NewWinnerTakeAll() *WinnerTakeAll {
	return &WinnerTakeAll{
		Sharpness:     12,
		TargetLatency: 40,
		LearningRate:  0.1,
		FailureDelta:  -1000,
		LoserDecay:    0.999,
	}
}

// Name implements RoutingPolicy.
func (w *WinnerTakeAll) Name() string { return PolicyWinnerTakeAll }

// Select implements RoutingPolicy.
//
// r = U(0,1) * Σ exp(Sharpness*w_i); scanning in roster order, the first
// node at which r - Σ_{j≤i} score_j ≤ 0 wins. If rounding prevents any node
// from tripping, the last node wins. An empty roster yields index 0.
func (w *WinnerTakeAll) Select(ps *PolicyState, rng RandSource) int {
	nodes := ps.Nodes
	if len(nodes) == 0 {
		return 0
	}
	scores := make([]float64, len(nodes))
	total := 0.0
	for i := range nodes {
		scores[i] = math.Exp(nodes[i].Weight * w.Sharpness)
		total += scores[i]
	}
	r := rng.Float64() * total
	for i, s := range scores {
		r -= s
		if r <= 0 {
			return i
		}
	}
	return len(nodes) - 1
}

// Learn implements RoutingPolicy. It applies the weight update to every
// node and renormalizes the roster so weights sum to 1.
func (w *WinnerTakeAll) Learn(nodes []ServiceNode, winner int) {
	for i := range nodes {
		n := &nodes[i]
		if i != winner {
			n.Weight = math.Max(MinWeight, n.Weight*w.LoserDecay)
			continue
		}
		delta := w.TargetLatency - n.Latency
		if n.Failed {
			delta = w.FailureDelta
		}
		n.Weight = clamp(n.Weight+delta*0.001*w.LearningRate, MinWeight, MaxWeight)
	}
	normalizeWeights(nodes)
}

// Profile implements RoutingPolicy.
func (w *WinnerTakeAll) Profile() SuccessProfile {
	return SuccessProfile{
		OverloadThreshold: 95,
		OverloadSuccess:   0.9,
		ThroughputScale:   6.5,
		P95Multiplier:     AdaptiveP95Multiplier,
	}
}
