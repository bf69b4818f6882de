// Package sim provides the discrete-time routing simulation for routesim.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - node.go / latency.go: the ServiceNode roster and its memoryless latency model
//   - policy.go: RoundRobin and WinnerTakeAll, the two RoutingPolicy implementations
//   - engine.go: Engine.Tick, the single state transition
//
// # Architecture
//
// A SimulationState holds two independent copies of the roster, one per
// policy. Engine.Tick consumes a state and a FailureOverrides map and
// returns a new state; the input is never modified. Both policies share one
// runner (runPolicy) that updates load, latency and statistics; they differ
// only in Select and Learn.
//
// Randomness is injected. NewEngine derives one stream per policy from a
// SimulationKey via PartitionedRNG, so a seed fully determines a run.
//
// Sub-packages:
//   - sim/trace/: per-tick decision recording
//   - sim/session/: run flag, failure overrides and a ticker-driven driver
package sim
