package sim

import (
	"math"
	"time"
)

const (
	// HistoryCapacity is the number of most recent samples retained.
	HistoryCapacity = 31
	// historyEvery is the tick period between samples.
	historyEvery = 2
	// historyTimestampLayout renders wall-clock minutes and seconds.
	historyTimestampLayout = "04:05"
)

// HistorySample is a point-in-time snapshot of both policies' smoothed
// latency and throughput, rounded to integers for display.
type HistorySample struct {
	Timestamp       string `json:"timestamp"`
	TradLatency     int64  `json:"tradLatency"`
	NeuroLatency    int64  `json:"neuroLatency"`
	TradThroughput  int64  `json:"tradThroughput"`
	NeuroThroughput int64  `json:"neuroThroughput"`
}

func newHistorySample(now time.Time, trad, adaptive RoutingStats) HistorySample {
	return HistorySample{
		Timestamp:       now.Format(historyTimestampLayout),
		TradLatency:     int64(math.Round(trad.AvgLatency)),
		NeuroLatency:    int64(math.Round(adaptive.AvgLatency)),
		TradThroughput:  int64(math.Round(trad.Throughput)),
		NeuroThroughput: int64(math.Round(adaptive.Throughput)),
	}
}

// appendHistory returns a new slice holding the last HistoryCapacity
// entries of history followed by sample. history is not modified.
func appendHistory(history []HistorySample, sample HistorySample) []HistorySample {
	start := 0
	if len(history) >= HistoryCapacity {
		start = len(history) - (HistoryCapacity - 1)
	}
	out := make([]HistorySample, 0, len(history)-start+1)
	out = append(out, history[start:]...)
	return append(out, sample)
}

// shouldSample reports whether a history sample is due after tick elapsed.
func shouldSample(elapsed int64) bool {
	return elapsed%historyEvery == 0
}
