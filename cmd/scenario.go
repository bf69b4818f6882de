package cmd

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/routesim/sim"
)

// Scenario is the YAML description of one simulation run.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	Seed     *int64        `yaml:"seed"`
	Ticks    *int64        `yaml:"ticks"`
	Interval time.Duration `yaml:"interval"`
	Roster   []NodeSpec    `yaml:"roster"`
	Chaos    []ChaosEvent  `yaml:"chaos"`
}

// NodeSpec declares one roster entry. Latency defaults to the kind's
// baseline when omitted.
type NodeSpec struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Load    float64  `yaml:"load"`
	Latency *float64 `yaml:"latency"`
}

// ChaosEvent sets a node's failure override from Tick onward.
type ChaosEvent struct {
	Tick   int64  `yaml:"tick"`
	Node   string `yaml:"node"`
	Failed bool   `yaml:"failed"`
}

// LoadScenario reads and strictly parses a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario strictly decodes a YAML scenario. Unknown fields are errors.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return &sc, nil
}

// Validate checks roster shape, value ranges and chaos references.
func (sc *Scenario) Validate() error {
	if sc.Ticks != nil && *sc.Ticks < 0 {
		return fmt.Errorf("ticks must be non-negative, got %d", *sc.Ticks)
	}
	if sc.Interval < 0 {
		return fmt.Errorf("interval must be non-negative, got %v", sc.Interval)
	}
	seen := make(map[string]bool, len(sc.Roster))
	for i, n := range sc.Roster {
		if n.ID == "" {
			return fmt.Errorf("roster[%d]: id is required", i)
		}
		if seen[n.ID] {
			return fmt.Errorf("roster[%d]: duplicate id %q", i, n.ID)
		}
		seen[n.ID] = true
		if !sim.IsValidNodeKind(n.Kind) {
			return fmt.Errorf("roster[%d]: unknown kind %q", i, n.Kind)
		}
		if n.Load < sim.MinLoad || n.Load > sim.MaxLoad {
			return fmt.Errorf("roster[%d]: load must be in [0, 100], got %v", i, n.Load)
		}
		if n.Latency != nil && *n.Latency < sim.MinLatency {
			return fmt.Errorf("roster[%d]: latency must be >= %v, got %v", i, sim.MinLatency, *n.Latency)
		}
	}
	roster := sc.BuildRoster()
	for i, ev := range sc.Chaos {
		if ev.Tick < 0 {
			return fmt.Errorf("chaos[%d]: tick must be non-negative, got %d", i, ev.Tick)
		}
		if sim.NodeIndex(roster, ev.Node) < 0 {
			return fmt.Errorf("chaos[%d]: unknown node %q", i, ev.Node)
		}
	}
	return nil
}

// BuildRoster returns the scenario roster, or sim.DefaultRoster when none
// is declared. Weights are spread uniformly.
func (sc *Scenario) BuildRoster() []sim.ServiceNode {
	if len(sc.Roster) == 0 {
		return sim.DefaultRoster()
	}
	weight := 1.0 / float64(len(sc.Roster))
	nodes := make([]sim.ServiceNode, len(sc.Roster))
	for i, n := range sc.Roster {
		latency := sim.BaseLatency(sim.NodeKind(n.Kind))
		if n.Latency != nil {
			latency = *n.Latency
		}
		name := n.Name
		if name == "" {
			name = n.ID
		}
		nodes[i] = sim.ServiceNode{
			ID:      n.ID,
			Name:    name,
			Kind:    sim.NodeKind(n.Kind),
			Load:    n.Load,
			Latency: latency,
			Weight:  weight,
		}
	}
	return nodes
}

// ChaosSchedule maps a tick to the overrides that take effect on it.
type ChaosSchedule map[int64]sim.FailureOverrides

// NewChaosSchedule groups events by tick. Later events for the same node
// and tick win. A tick-0 event applies before the first tick.
func NewChaosSchedule(events []ChaosEvent) ChaosSchedule {
	schedule := make(ChaosSchedule)
	for _, ev := range events {
		tick := ev.Tick
		if tick < 1 {
			tick = 1
		}
		if schedule[tick] == nil {
			schedule[tick] = make(sim.FailureOverrides)
		}
		schedule[tick][ev.Node] = ev.Failed
	}
	return schedule
}

// Ticks returns the scheduled ticks in ascending order.
func (cs ChaosSchedule) Ticks() []int64 {
	ticks := make([]int64, 0, len(cs))
	for t := range cs {
		ticks = append(ticks, t)
	}
	sort.Slice(ticks, func(i, j int) bool { return ticks[i] < ticks[j] })
	return ticks
}

// ParseChaosFlag parses "id@tick" as used by --fail and --restore. A bare
// "id" is shorthand for "id@0", which applies before the first tick.
func ParseChaosFlag(value string, failed bool) (ChaosEvent, error) {
	id, tickStr, ok := strings.Cut(value, "@")
	if !ok {
		return ChaosEvent{Node: value, Tick: 0, Failed: failed}, nil
	}
	if id == "" {
		return ChaosEvent{}, fmt.Errorf("chaos flag %q: missing node id", value)
	}
	tick, err := strconv.ParseInt(tickStr, 10, 64)
	if err != nil {
		return ChaosEvent{}, fmt.Errorf("chaos flag %q: invalid tick: %w", value, err)
	}
	return ChaosEvent{Node: id, Tick: tick, Failed: failed}, nil
}
