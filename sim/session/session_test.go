package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/routesim/sim"
)

func newTestSession(seed int64) *Session {
	e := sim.NewEngine(sim.NewSimulationKey(seed))
	e.SetClock(func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) })
	return New(e, nil)
}

func TestSession_New_PausedInitialState(t *testing.T) {
	s := newTestSession(1)
	assert.False(t, s.Running())
	assert.Equal(t, sim.InitialState(), s.Snapshot())
	assert.Empty(t, s.Overrides())
}

func TestSession_Step_NoOpWhilePaused(t *testing.T) {
	s := newTestSession(1)
	state := s.Step()
	assert.Equal(t, int64(0), state.ElapsedTime)
}

func TestSession_StartPauseResume_PreservesState(t *testing.T) {
	// GIVEN a started session that ticked 5 times
	s := newTestSession(2)
	s.Start()
	for i := 0; i < 5; i++ {
		s.Step()
	}

	// WHEN paused, stepped, and resumed
	s.Pause()
	paused := s.Step()
	s.Start()
	resumed := s.Step()

	// THEN pausing kept the state and resuming continued from it
	assert.Equal(t, int64(5), paused.ElapsedTime)
	assert.Equal(t, int64(6), resumed.ElapsedTime)
}

func TestSession_Toggle(t *testing.T) {
	s := newTestSession(3)
	assert.True(t, s.Toggle())
	assert.True(t, s.Running())
	assert.False(t, s.Toggle())
	assert.False(t, s.Running())
}

func TestSession_FailureOverrides_StickyUntilChanged(t *testing.T) {
	s := newTestSession(4)
	s.Start()

	assert.True(t, s.ToggleFailure("s3"))
	s.Step()
	state := s.Step()
	assert.True(t, state.Traditional.Nodes[2].Failed)
	assert.True(t, state.Adaptive.Nodes[2].Failed)

	assert.False(t, s.ToggleFailure("s3"))
	state = s.Step()
	assert.False(t, state.Adaptive.Nodes[2].Failed)

	s.SetFailed("s1", true)
	assert.Equal(t, sim.FailureOverrides{"s1": true, "s3": false}, s.Overrides())
}

func TestSession_Reset_MatchesFreshStateAndClearsOverrides(t *testing.T) {
	// GIVEN a session with progress and a failed node
	s := newTestSession(5)
	s.Start()
	s.SetFailed("s2", true)
	for i := 0; i < 30; i++ {
		s.Step()
	}

	// WHEN reset
	state := s.Reset()

	// THEN the state equals a fresh one and overrides are gone
	assert.Equal(t, sim.InitialState(), state)
	assert.Empty(t, s.Overrides())
	assert.False(t, s.Running())

	// AND ticking after reset no longer fails s2
	s.Start()
	next := s.Step()
	assert.False(t, next.Traditional.Nodes[1].Failed)
}

func TestSession_CustomRoster(t *testing.T) {
	roster := []sim.ServiceNode{
		{ID: "a", Kind: sim.KindCache, Weight: 0.5},
		{ID: "b", Kind: sim.KindAuth, Weight: 0.5},
	}
	s := New(sim.NewEngine(sim.NewSimulationKey(6)), roster)
	roster[0].ID = "mutated"

	s.Start()
	state := s.Step()
	require.Len(t, state.Adaptive.Nodes, 2)
	assert.Equal(t, "a", state.Adaptive.Nodes[0].ID)
	assert.Equal(t, "a", s.Reset().Traditional.Nodes[0].ID)
}

func TestSession_ConcurrentStepsAreSerialized(t *testing.T) {
	s := newTestSession(7)
	s.Start()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				s.Step()
			}
		}()
	}
	wg.Wait()

	state := s.Snapshot()
	assert.Equal(t, int64(200), state.ElapsedTime)
	assert.Equal(t, int64(200), state.Traditional.Stats.TotalRequests)
	assert.Equal(t, int64(200), state.Adaptive.Stats.TotalRequests)
}
