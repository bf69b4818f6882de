package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/routesim/sim/trace"
)

// Per-tick load adjustments.
const (
	selectedLoadStep = 5.0
	idleLoadStep     = 2.0
)

// Decision describes one policy's routing outcome for a single tick.
type Decision struct {
	Policy  string
	Index   int
	NodeID  string
	Latency float64
	Success float64
	Failed  bool
}

// Engine advances simulation states. It owns only the injected
// collaborators of a tick (randomness, clock, optional trace); all
// simulation data travels in SimulationState values.
//
// Thread-safety: NOT thread-safe. Ticks of one state lineage must be
// serialized by the caller.
type Engine struct {
	traditional RoutingPolicy
	adaptive    RoutingPolicy

	traditionalRNG RandSource
	adaptiveRNG    RandSource

	now   func() time.Time
	trace *trace.SimulationTrace
}

// NewEngine creates an engine whose randomness is derived from key, so that
// runs with the same key, roster and overrides are replayable.
func NewEngine(key SimulationKey) *Engine {
	rng := NewPartitionedRNG(key)
	return NewEngineWithSources(
		rng.ForSubsystem(SubsystemTraditional),
		rng.ForSubsystem(SubsystemAdaptive),
	)
}

// NewEngineWithSources creates an engine drawing the round-robin policy's
// randomness from traditional and the adaptive policy's from adaptive.
func NewEngineWithSources(traditional, adaptive RandSource) *Engine {
	return &Engine{
		traditional:    NewRoutingPolicy(PolicyRoundRobin),
		adaptive:       NewRoutingPolicy(PolicyWinnerTakeAll),
		traditionalRNG: traditional,
		adaptiveRNG:    adaptive,
		now:            time.Now,
	}
}

// SetClock replaces the wall clock used for history timestamps.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// SetTrace enables decision recording into st. A nil trace, or one whose
// level is not TraceLevelDecisions, disables recording.
func (e *Engine) SetTrace(st *trace.SimulationTrace) {
	if st != nil && !st.Config.Enabled() {
		st = nil
	}
	e.trace = st
}

// Tick advances state by one routing decision per policy and returns the
// new state. The input is never modified. A state that is not running is
// returned unchanged.
//
// overrides is applied to both rosters before routing; see FailureOverrides.
func (e *Engine) Tick(state SimulationState, overrides FailureOverrides) SimulationState {
	if !state.IsRunning {
		return state
	}

	next := state.Clone()
	next.ElapsedTime++

	e.applyOverrides(next.ElapsedTime, PolicyRoundRobin, next.Traditional.Nodes, overrides)
	e.applyOverrides(next.ElapsedTime, PolicyWinnerTakeAll, next.Adaptive.Nodes, overrides)

	trad := runPolicy(e.traditional, &next.Traditional, e.traditionalRNG)
	adaptive := runPolicy(e.adaptive, &next.Adaptive, e.adaptiveRNG)
	e.record(next.ElapsedTime, trad, nil)
	e.record(next.ElapsedTime, adaptive, next.Adaptive.Nodes)

	if shouldSample(next.ElapsedTime) {
		next.History = appendHistory(next.History,
			newHistorySample(e.now(), next.Traditional.Stats, next.Adaptive.Stats))
	}

	logrus.WithFields(logrus.Fields{
		"tick":        next.ElapsedTime,
		"traditional": trad.NodeID,
		"adaptive":    adaptive.NodeID,
	}).Debug("tick routed")

	return next
}

// runPolicy performs one tick of policy against ps: select, refresh load
// and latency on every node, learn, then fold the outcome into ps.Stats.
func runPolicy(policy RoutingPolicy, ps *PolicyState, rng RandSource) Decision {
	if len(ps.Nodes) == 0 {
		panic(fmt.Sprintf("%s: empty roster", policy.Name()))
	}
	winner := policy.Select(ps, rng)

	for i := range ps.Nodes {
		n := &ps.Nodes[i]
		n.Active = i == winner
		// A failed node sheds load even when selected.
		if n.Active && !n.Failed {
			n.Load = math.Min(MaxLoad, n.Load+selectedLoadStep)
		} else {
			n.Load = math.Max(MinLoad, n.Load-idleLoadStep)
		}
		n.Latency = NextLatency(*n, LatencyVolatility, rng)
	}

	policy.Learn(ps.Nodes, winner)

	selected := ps.Nodes[winner]
	ps.LastWinnerID = selected.ID
	success := ps.Stats.observe(selected, policy.Profile())

	return Decision{
		Policy:  policy.Name(),
		Index:   winner,
		NodeID:  selected.ID,
		Latency: selected.Latency,
		Success: success,
		Failed:  selected.Failed,
	}
}

// applyOverrides sets the failure flag of every node that has an explicit
// entry in overrides. Nodes without an entry keep their flag.
func (e *Engine) applyOverrides(tick int64, policy string, nodes []ServiceNode, overrides FailureOverrides) {
	for i := range nodes {
		failed, ok := overrides[nodes[i].ID]
		if !ok || nodes[i].Failed == failed {
			continue
		}
		nodes[i].Failed = failed
		logrus.WithFields(logrus.Fields{
			"tick":   tick,
			"policy": policy,
			"node":   nodes[i].ID,
			"failed": failed,
		}).Info("node failure state changed")
		if e.trace != nil {
			e.trace.RecordFailure(trace.FailureRecord{
				Tick:   tick,
				Policy: policy,
				NodeID: nodes[i].ID,
				Failed: failed,
			})
		}
	}
}

// record appends d to the trace. weights, when non-nil, is the roster
// whose post-learning weights are captured with the decision.
func (e *Engine) record(tick int64, d Decision, weights []ServiceNode) {
	if e.trace == nil {
		return
	}
	rec := trace.RoutingRecord{
		Tick:       tick,
		Policy:     d.Policy,
		ChosenNode: d.NodeID,
		Reason:     fmt.Sprintf("%s[%d]", d.Policy, d.Index),
		Latency:    d.Latency,
		Success:    d.Success,
		NodeFailed: d.Failed,
	}
	if weights != nil {
		rec.Weights = make(map[string]float64, len(weights))
		for _, n := range weights {
			rec.Weights[n.ID] = n.Weight
		}
	}
	e.trace.RecordRouting(rec)
}
