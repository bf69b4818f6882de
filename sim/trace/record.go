// Package trace provides decision-trace recording for routing policy analysis.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// RoutingRecord captures a single routing policy decision.
type RoutingRecord struct {
	Tick       int64              `json:"tick"`
	Policy     string             `json:"policy"`
	ChosenNode string             `json:"chosenNode"`
	Reason     string             `json:"reason"`
	Latency    float64            `json:"latency"`
	Success    float64            `json:"success"` // per-tick success signal in [0, 1]
	NodeFailed bool               `json:"nodeFailed"`
	Weights    map[string]float64 `json:"weights,omitempty"` // node ID → weight after learning (nil for policies without weights)
}

// FailureRecord captures a change of a node's failure flag in one policy's roster.
type FailureRecord struct {
	Tick   int64  `json:"tick"`
	Policy string `json:"policy"`
	NodeID string `json:"nodeId"`
	Failed bool   `json:"failed"`
}
