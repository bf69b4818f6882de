package sim

// NodeKind classifies a backend node. The kind determines the node's
// latency baseline.
type NodeKind string

const (
	KindAuth    NodeKind = "auth"
	KindData    NodeKind = "data"
	KindCache   NodeKind = "cache"
	KindCompute NodeKind = "compute"
)

// validNodeKinds maps accepted node kind strings.
var validNodeKinds = map[NodeKind]bool{
	KindAuth:    true,
	KindData:    true,
	KindCache:   true,
	KindCompute: true,
}

// IsValidNodeKind returns true if the given kind string is a recognized node kind.
func IsValidNodeKind(kind string) bool {
	return validNodeKinds[NodeKind(kind)]
}

// Roster bounds enforced on every tick.
const (
	MinLoad   = 0.0
	MaxLoad   = 100.0
	MinWeight = 0.001
	MaxWeight = 0.999

	// InitialWeight is the seed selection weight for a four-node roster.
	InitialWeight = 0.25
)

// ServiceNode is one simulated backend as seen by a single routing policy.
// Each policy owns a private copy of the roster; nodes with the same ID in
// different rosters never share state.
type ServiceNode struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Kind    NodeKind `json:"kind"`
	Load    float64  `json:"load"`    // utilization gauge in [0, 100]
	Latency float64  `json:"latency"` // last observed service time (ms)
	Weight  float64  `json:"weight"`  // adaptive selection weight; ignored by round-robin
	Active  bool     `json:"active"`  // selected in the most recent tick
	Failed  bool     `json:"failed"`  // externally controlled outage flag
}

// DefaultRoster returns the four-node roster used when no scenario roster
// is configured. Every call returns a fresh slice.
func DefaultRoster() []ServiceNode {
	return []ServiceNode{
		{ID: "s1", Name: "Auth Service", Kind: KindAuth, Load: 10, Latency: 45, Weight: InitialWeight},
		{ID: "s2", Name: "Data Store", Kind: KindData, Load: 25, Latency: 120, Weight: InitialWeight},
		{ID: "s3", Name: "Redis Cache", Kind: KindCache, Load: 5, Latency: 15, Weight: InitialWeight},
		{ID: "s4", Name: "Compute Node", Kind: KindCompute, Load: 40, Latency: 85, Weight: InitialWeight},
	}
}

// CloneRoster returns a deep copy of nodes. ServiceNode holds no reference
// types, so a slice copy is sufficient.
func CloneRoster(nodes []ServiceNode) []ServiceNode {
	if nodes == nil {
		return nil
	}
	out := make([]ServiceNode, len(nodes))
	copy(out, nodes)
	return out
}

// NodeIndex returns the position of the node with the given ID, or -1.
func NodeIndex(nodes []ServiceNode, id string) int {
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
