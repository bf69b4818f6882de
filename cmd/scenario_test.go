package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/routesim/sim"
)

const validScenarioYAML = `
seed: 7
ticks: 90
interval: 250ms
roster:
  - {id: a, name: Edge Cache, kind: cache, load: 5}
  - {id: b, name: Auth, kind: auth, load: 10, latency: 50}
  - {id: c, kind: data, load: 20}
chaos:
  - {tick: 10, node: b, failed: true}
  - {tick: 40, node: b, failed: false}
`

func TestParseScenario_ValidFile(t *testing.T) {
	sc, err := ParseScenario([]byte(validScenarioYAML))
	require.NoError(t, err)
	require.NoError(t, sc.Validate())

	require.NotNil(t, sc.Seed)
	assert.Equal(t, int64(7), *sc.Seed)
	require.NotNil(t, sc.Ticks)
	assert.Equal(t, int64(90), *sc.Ticks)
	assert.Equal(t, 250*time.Millisecond, sc.Interval)
	assert.Len(t, sc.Roster, 3)
	assert.Len(t, sc.Chaos, 2)
}

func TestParseScenario_UnknownFieldRejected(t *testing.T) {
	// GIVEN a typo in a field name
	_, err := ParseScenario([]byte("seed: 1\ntick: 5\n"))

	// THEN strict parsing fails
	assert.Error(t, err)
}

func TestLoadScenario_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validScenarioYAML), 0o644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, sc.Roster, 3)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScenario_Validate_Errors(t *testing.T) {
	neg := int64(-1)
	low := 1.0
	tests := []struct {
		name string
		sc   Scenario
	}{
		{"negative ticks", Scenario{Ticks: &neg}},
		{"negative interval", Scenario{Interval: -time.Second}},
		{"missing id", Scenario{Roster: []NodeSpec{{Kind: "auth"}}}},
		{"duplicate id", Scenario{Roster: []NodeSpec{{ID: "a", Kind: "auth"}, {ID: "a", Kind: "data"}}}},
		{"unknown kind", Scenario{Roster: []NodeSpec{{ID: "a", Kind: "gpu"}}}},
		{"load out of range", Scenario{Roster: []NodeSpec{{ID: "a", Kind: "auth", Load: 101}}}},
		{"latency below floor", Scenario{Roster: []NodeSpec{{ID: "a", Kind: "auth", Latency: &low}}}},
		{"chaos unknown node", Scenario{Chaos: []ChaosEvent{{Tick: 1, Node: "zz", Failed: true}}}},
		{"chaos negative tick", Scenario{Chaos: []ChaosEvent{{Tick: -2, Node: "s1", Failed: true}}}},
		{"chaos node outside custom roster", Scenario{
			Roster: []NodeSpec{{ID: "a", Kind: "auth"}},
			Chaos:  []ChaosEvent{{Tick: 1, Node: "s1"}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.sc.Validate())
		})
	}
}

func TestScenario_Validate_DefaultRosterChaos(t *testing.T) {
	sc := Scenario{Chaos: []ChaosEvent{{Tick: 3, Node: "s4", Failed: true}}}
	assert.NoError(t, sc.Validate())
}

func TestScenario_BuildRoster(t *testing.T) {
	// GIVEN no roster
	empty := &Scenario{}

	// THEN the default roster is used
	assert.Equal(t, sim.DefaultRoster(), empty.BuildRoster())

	// GIVEN a custom roster
	sc, err := ParseScenario([]byte(validScenarioYAML))
	require.NoError(t, err)
	nodes := sc.BuildRoster()

	// THEN weights are uniform, latency defaults to the baseline and name to the id
	require.Len(t, nodes, 3)
	for _, n := range nodes {
		assert.InDelta(t, 1.0/3, n.Weight, 1e-12)
	}
	assert.Equal(t, 15.0, nodes[0].Latency)
	assert.Equal(t, 50.0, nodes[1].Latency)
	assert.Equal(t, "c", nodes[2].Name)
	assert.Equal(t, sim.KindData, nodes[2].Kind)
}

func TestNewChaosSchedule_GroupsByTick(t *testing.T) {
	schedule := NewChaosSchedule([]ChaosEvent{
		{Tick: 0, Node: "s1", Failed: true},
		{Tick: 5, Node: "s2", Failed: true},
		{Tick: 5, Node: "s3", Failed: true},
		{Tick: 5, Node: "s2", Failed: false},
	})

	assert.Equal(t, []int64{1, 5}, schedule.Ticks())
	assert.Equal(t, sim.FailureOverrides{"s1": true}, schedule[1])
	assert.Equal(t, sim.FailureOverrides{"s2": false, "s3": true}, schedule[5])
}

func TestParseChaosFlag(t *testing.T) {
	ev, err := ParseChaosFlag("s2@15", true)
	require.NoError(t, err)
	assert.Equal(t, ChaosEvent{Node: "s2", Tick: 15, Failed: true}, ev)

	ev, err = ParseChaosFlag("s3", false)
	require.NoError(t, err)
	assert.Equal(t, ChaosEvent{Node: "s3", Tick: 0, Failed: false}, ev)

	_, err = ParseChaosFlag("s1@soon", true)
	assert.Error(t, err)
	_, err = ParseChaosFlag("@4", true)
	assert.Error(t, err)
}

func TestScenario_Validate_ChaosNodeResolvedAgainstBuiltRoster(t *testing.T) {
	// GIVEN a custom roster and chaos naming one of its nodes
	sc := Scenario{
		Roster: []NodeSpec{{ID: "edge", Kind: "cache"}, {ID: "db", Kind: "data"}},
		Chaos:  []ChaosEvent{{Tick: 2, Node: "db", Failed: true}},
	}

	// THEN it validates, and a default-roster id does not
	assert.NoError(t, sc.Validate())
	sc.Chaos = append(sc.Chaos, ChaosEvent{Tick: 3, Node: "s2"})
	assert.ErrorContains(t, sc.Validate(), `unknown node "s2"`)
}
