package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/routesim/sim"
	"github.com/inference-sim/routesim/sim/trace"
)

// SeriesStats summarizes one history series.
type SeriesStats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// HistoryStats summarizes the retained history window.
type HistoryStats struct {
	Samples         int         `json:"samples"`
	TradLatency     SeriesStats `json:"tradLatency"`
	NeuroLatency    SeriesStats `json:"neuroLatency"`
	TradThroughput  SeriesStats `json:"tradThroughput"`
	NeuroThroughput SeriesStats `json:"neuroThroughput"`
}

// Report is the end-of-run output of the run command.
type Report struct {
	Seed       int64               `json:"seed"`
	State      sim.SimulationState `json:"state"`
	Comparison sim.Comparison      `json:"comparison"`
	History    HistoryStats        `json:"historyStats"`
	Trace      *trace.TraceSummary `json:"trace,omitempty"`
}

// NewReport builds a report for the final state of a run. st may be nil.
func NewReport(seed int64, state sim.SimulationState, st *trace.SimulationTrace) *Report {
	r := &Report{
		Seed:       seed,
		State:      state,
		Comparison: sim.Compare(state),
		History:    summarizeHistory(state.History),
	}
	if st != nil {
		r.Trace = trace.Summarize(st)
	}
	return r
}

func summarizeHistory(history []sim.HistorySample) HistoryStats {
	n := len(history)
	tl, nl := make([]float64, n), make([]float64, n)
	tt, nt := make([]float64, n), make([]float64, n)
	for i, h := range history {
		tl[i], nl[i] = float64(h.TradLatency), float64(h.NeuroLatency)
		tt[i], nt[i] = float64(h.TradThroughput), float64(h.NeuroThroughput)
	}
	return HistoryStats{
		Samples:         n,
		TradLatency:     seriesStats(tl),
		NeuroLatency:    seriesStats(nl),
		TradThroughput:  seriesStats(tt),
		NeuroThroughput: seriesStats(nt),
	}
}

func seriesStats(x []float64) SeriesStats {
	if len(x) == 0 {
		return SeriesStats{}
	}
	s := SeriesStats{
		Mean: stat.Mean(x, nil),
		Min:  floats.Min(x),
		Max:  floats.Max(x),
	}
	if len(x) > 1 {
		s.StdDev = stat.StdDev(x, nil)
	}
	return s
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

var (
	headerColor      = color.New(color.FgHiWhite, color.Bold)
	traditionalColor = color.New(color.FgCyan, color.Bold)
	adaptiveColor    = color.New(color.FgHiYellow, color.Bold)
	failedColor      = color.New(color.FgRed)
	gainColor        = color.New(color.FgGreen)
	lossColor        = color.New(color.FgRed)
)

// WriteText writes a human-readable report. Colors are disabled when the
// output is not a terminal (see color.NoColor).
func (r *Report) WriteText(w io.Writer) error {
	s := r.State
	headerColor.Fprintf(w, "=== Routing Simulation (seed=%d, elapsed=%s, ticks=%d) ===\n",
		r.Seed, r.Comparison.Elapsed, s.ElapsedTime)

	writePolicy(w, traditionalColor, "Traditional (round-robin)", s.Traditional, r.Comparison.TraditionalP95)
	writePolicy(w, adaptiveColor, "Neuromorphic (winner-take-all)", s.Adaptive, r.Comparison.AdaptiveP95)

	headerColor.Fprintln(w, "--- Comparison ---")
	writeSigned(w, "Latency improvement ", r.Comparison.LatencyImprovementPct, "%")
	writeSigned(w, "Throughput gain     ", r.Comparison.ThroughputGainPct, "%")
	writeSigned(w, "Success difference  ", r.Comparison.SuccessDiff, " pts")

	h := r.History
	headerColor.Fprintf(w, "--- History (%d samples) ---\n", h.Samples)
	if h.Samples > 0 {
		fmt.Fprintf(w, "Latency    trad  mean=%.1f sd=%.1f range=[%.0f, %.0f]\n", h.TradLatency.Mean, h.TradLatency.StdDev, h.TradLatency.Min, h.TradLatency.Max)
		fmt.Fprintf(w, "Latency    neuro mean=%.1f sd=%.1f range=[%.0f, %.0f]\n", h.NeuroLatency.Mean, h.NeuroLatency.StdDev, h.NeuroLatency.Min, h.NeuroLatency.Max)
		fmt.Fprintf(w, "Throughput trad  mean=%.1f sd=%.1f range=[%.0f, %.0f]\n", h.TradThroughput.Mean, h.TradThroughput.StdDev, h.TradThroughput.Min, h.TradThroughput.Max)
		fmt.Fprintf(w, "Throughput neuro mean=%.1f sd=%.1f range=[%.0f, %.0f]\n", h.NeuroThroughput.Mean, h.NeuroThroughput.StdDev, h.NeuroThroughput.Min, h.NeuroThroughput.Max)
	}

	if r.Trace != nil {
		writeTrace(w, r.Trace)
	}
	return nil
}

func writePolicy(w io.Writer, c *color.Color, title string, ps sim.PolicyState, p95 float64) {
	c.Fprintf(w, "--- %s ---\n", title)
	st := ps.Stats
	fmt.Fprintf(w, "Avg Latency     : %.0f ms\n", st.AvgLatency)
	fmt.Fprintf(w, "P95 Latency     : %.0f ms\n", p95)
	fmt.Fprintf(w, "Throughput      : %.0f req/s\n", st.Throughput)
	fmt.Fprintf(w, "Success Rate    : %.1f%%\n", st.SuccessRate)
	fmt.Fprintf(w, "Total Requests  : %d\n", st.TotalRequests)
	for _, n := range ps.Nodes {
		marker := " "
		if n.Active {
			marker = "*"
		}
		line := fmt.Sprintf("  %s %-3s %-14s load=%5.1f latency=%7.1fms weight=%.3f", marker, n.ID, n.Name, n.Load, n.Latency, n.Weight)
		if n.Failed {
			failedColor.Fprintln(w, line+" FAILED")
			continue
		}
		fmt.Fprintln(w, line)
	}
}

func writeSigned(w io.Writer, label string, v float64, unit string) {
	c := gainColor
	if v < 0 {
		c = lossColor
	}
	fmt.Fprint(w, label+": ")
	c.Fprintf(w, "%+.1f%s\n", v, unit)
}

func writeTrace(w io.Writer, ts *trace.TraceSummary) {
	headerColor.Fprintf(w, "--- Trace (%d failure transitions) ---\n", ts.FailureTransitions)
	policies := make([]string, 0, len(ts.Policies))
	for name := range ts.Policies {
		policies = append(policies, name)
	}
	sort.Strings(policies)
	for _, name := range policies {
		ps := ts.Policies[name]
		fmt.Fprintf(w, "%-16s decisions=%d failed_hits=%d mean_success=%.3f targets=", name, ps.TotalDecisions, ps.FailedHits, ps.MeanSuccess)
		ids := make([]string, 0, len(ps.TargetDistribution))
		for id := range ps.TargetDistribution {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for i, id := range ids {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, "%s:%d", id, ps.TargetDistribution[id])
		}
		fmt.Fprintln(w)
	}
}
