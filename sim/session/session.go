// Package session owns a single simulation lineage on behalf of a caller:
// the current state, the run flag, and the failure overrides set through
// chaos control. All methods are safe for concurrent use; ticks are
// serialized.
package session

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/routesim/sim"
)

// Session serializes ticks against one state lineage.
type Session struct {
	mu        sync.Mutex
	engine    *sim.Engine
	roster    []sim.ServiceNode
	state     sim.SimulationState
	overrides sim.FailureOverrides
}

// New creates a paused session over roster. A nil roster uses
// sim.DefaultRoster.
func New(engine *sim.Engine, roster []sim.ServiceNode) *Session {
	if roster == nil {
		roster = sim.DefaultRoster()
	}
	roster = sim.CloneRoster(roster)
	return &Session{
		engine:    engine,
		roster:    roster,
		state:     sim.NewState(roster),
		overrides: make(sim.FailureOverrides),
	}
}

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() sim.SimulationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Running reports the run flag.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsRunning
}

// Start sets the run flag.
func (s *Session) Start() { s.setRunning(true) }

// Pause clears the run flag. State is preserved; Start resumes from it.
func (s *Session) Pause() { s.setRunning(false) }

// Toggle flips the run flag and returns its new value.
func (s *Session) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.WithRunning(!s.state.IsRunning)
	return s.state.IsRunning
}

func (s *Session) setRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.IsRunning == running {
		return
	}
	s.state = s.state.WithRunning(running)
}

// SetFailed records an explicit failure override for node id. It takes
// effect on the next tick and persists until changed or Reset.
func (s *Session) SetFailed(id string, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[id] = failed
	logrus.WithFields(logrus.Fields{"node": id, "failed": failed}).Debug("failure override set")
}

// ToggleFailure flips the override for node id (an absent override counts
// as healthy) and returns the new value.
func (s *Session) ToggleFailure(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[id] = !s.overrides[id]
	return s.overrides[id]
}

// Overrides returns a copy of the current failure overrides.
func (s *Session) Overrides() sim.FailureOverrides {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(sim.FailureOverrides, len(s.overrides))
	for k, v := range s.overrides {
		out[k] = v
	}
	return out
}

// Step advances the lineage by one tick and returns the new state. It is a
// no-op while paused.
func (s *Session) Step() sim.SimulationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.engine.Tick(s.state, s.overrides)
	return s.state.Clone()
}

// Reset replaces the state with a fresh, paused one over the session's
// roster and clears every failure override.
func (s *Session) Reset() sim.SimulationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sim.NewState(s.roster)
	s.overrides = make(sim.FailureOverrides)
	logrus.Info("session reset")
	return s.state.Clone()
}
