package trace

// PolicySummary aggregates one policy's routing records.
type PolicySummary struct {
	TotalDecisions     int            `json:"totalDecisions"`
	FailedHits         int            `json:"failedHits"` // decisions that landed on a failed node
	MeanSuccess        float64        `json:"meanSuccess"`
	MeanLatency        float64        `json:"meanLatency"`
	UniqueTargets      int            `json:"uniqueTargets"`
	TargetDistribution map[string]int `json:"targetDistribution"` // node ID → count of requests routed
}

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Policies           map[string]*PolicySummary `json:"policies"`
	FailureTransitions int                       `json:"failureTransitions"`
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		Policies: make(map[string]*PolicySummary),
	}
	if st == nil {
		return summary
	}

	summary.FailureTransitions = len(st.Failures)

	for _, r := range st.Routings {
		ps, ok := summary.Policies[r.Policy]
		if !ok {
			ps = &PolicySummary{TargetDistribution: make(map[string]int)}
			summary.Policies[r.Policy] = ps
		}
		ps.TotalDecisions++
		ps.TargetDistribution[r.ChosenNode]++
		ps.MeanSuccess += r.Success
		ps.MeanLatency += r.Latency
		if r.NodeFailed {
			ps.FailedHits++
		}
	}

	for _, ps := range summary.Policies {
		ps.MeanSuccess /= float64(ps.TotalDecisions)
		ps.MeanLatency /= float64(ps.TotalDecisions)
		ps.UniqueTargets = len(ps.TargetDistribution)
	}

	return summary
}
