package sim

// normalizeWeights rescales node weights to sum to 1 while keeping each
// weight inside [MinWeight, MaxWeight].
//
// The first pass is a plain w_i / Σw. A weight pushed out of range by that
// division is pinned to the violated bound and the remaining mass is spread
// over the unpinned nodes; this repeats until nothing moves, at most once
// per node. Rosters too small or too large for the bounds to admit a unit
// sum (n*MinWeight > 1 or n*MaxWeight < 1) fall back to the plain division.
func normalizeWeights(nodes []ServiceNode) {
	n := len(nodes)
	if n == 0 {
		return
	}
	if float64(n)*MinWeight > 1 || float64(n)*MaxWeight < 1 {
		divideBySum(nodes)
		return
	}

	pinned := make([]bool, n)
	for pass := 0; pass <= n; pass++ {
		pinnedMass, freeMass := 0.0, 0.0
		for i := range nodes {
			if pinned[i] {
				pinnedMass += nodes[i].Weight
			} else {
				freeMass += nodes[i].Weight
			}
		}
		if freeMass <= 0 {
			return
		}
		scale := (1 - pinnedMass) / freeMass
		moved := false
		for i := range nodes {
			if pinned[i] {
				continue
			}
			w := nodes[i].Weight * scale
			switch {
			case w < MinWeight:
				w, pinned[i], moved = MinWeight, true, true
			case w > MaxWeight:
				w, pinned[i], moved = MaxWeight, true, true
			}
			nodes[i].Weight = w
		}
		if !moved {
			return
		}
	}
}

func divideBySum(nodes []ServiceNode) {
	sum := 0.0
	for i := range nodes {
		sum += nodes[i].Weight
	}
	if sum <= 0 {
		return
	}
	for i := range nodes {
		nodes[i].Weight /= sum
	}
}

// WeightSum returns the sum of node weights.
func WeightSum(nodes []ServiceNode) float64 {
	sum := 0.0
	for i := range nodes {
		sum += nodes[i].Weight
	}
	return sum
}
