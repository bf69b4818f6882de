package sim

// FailureOverrides maps node IDs to an explicit failure flag. A missing key
// leaves the node's current flag untouched; it does not mean "healthy".
type FailureOverrides map[string]bool

// PolicyState is one policy's private view of the simulation: its own copy
// of the roster, its rolling statistics and its selection bookkeeping.
type PolicyState struct {
	Nodes []ServiceNode `json:"nodes"`
	Stats RoutingStats  `json:"stats"`
	// CursorIndex is the round-robin cursor. It starts at 0, so the first
	// round-robin tick selects index 1.
	CursorIndex int `json:"currentPathIndex"`
	// LastWinnerID is the node selected on the most recent tick, "" before
	// the first tick.
	LastWinnerID string `json:"lastWinnerId"`
}

func newPolicyState(roster []ServiceNode) PolicyState {
	return PolicyState{
		Nodes: CloneRoster(roster),
		Stats: NewRoutingStats(),
	}
}

// Clone returns a deep copy of ps.
func (ps PolicyState) Clone() PolicyState {
	ps.Nodes = CloneRoster(ps.Nodes)
	return ps
}

// SimulationState is the aggregate root handed between ticks. Values are
// replaced wholesale: Engine.Tick never mutates its input, so callers may
// keep or compare earlier states freely.
type SimulationState struct {
	IsRunning   bool            `json:"isRunning"`
	ElapsedTime int64           `json:"elapsedTime"` // ticks, one per second of simulated time
	Traditional PolicyState     `json:"traditional"`
	Adaptive    PolicyState     `json:"neuromorphic"`
	History     []HistorySample `json:"history"`
}

// InitialState returns a fresh, paused state over DefaultRoster.
func InitialState() SimulationState {
	return NewState(DefaultRoster())
}

// NewState returns a fresh, paused state in which each policy receives its
// own deep copy of roster.
//
// Precondition: len(roster) >= 1. Ticking a state built from an empty
// roster panics.
func NewState(roster []ServiceNode) SimulationState {
	return SimulationState{
		Traditional: newPolicyState(roster),
		Adaptive:    newPolicyState(roster),
		History:     []HistorySample{},
	}
}

// Clone returns a deep copy of s.
func (s SimulationState) Clone() SimulationState {
	s.Traditional = s.Traditional.Clone()
	s.Adaptive = s.Adaptive.Clone()
	h := make([]HistorySample, len(s.History))
	copy(h, s.History)
	s.History = h
	return s
}

// WithRunning returns a copy of s with the run flag set to running.
func (s SimulationState) WithRunning(running bool) SimulationState {
	out := s.Clone()
	out.IsRunning = running
	return out
}
