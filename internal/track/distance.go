package track

import "math"

// DistanceTable is the all-pairs shortest-path precomputation consulted by
// the planner's heuristic.
type DistanceTable struct {
	dist map[Edge]float64
}

// ComputeDistances runs Floyd–Warshall over the segment distances and
// returns the resulting table.
func ComputeDistances(t *Track) *DistanceTable {
	cities := t.Cities()

	dist := make(map[Edge]float64, len(cities)*len(cities))
	for _, a := range cities {
		for _, b := range cities {
			if a == b {
				dist[Edge{a, b}] = 0
			} else {
				dist[Edge{a, b}] = math.Inf(1)
			}
		}
	}
	for edge, seg := range t.Segments {
		if seg.Distance < dist[edge] {
			dist[edge] = seg.Distance
		}
	}

	for _, k := range cities {
		for _, i := range cities {
			dik := dist[Edge{i, k}]
			if math.IsInf(dik, 1) {
				continue
			}
			for _, j := range cities {
				dkj := dist[Edge{k, j}]
				if math.IsInf(dkj, 1) {
					continue
				}
				if dik+dkj < dist[Edge{i, j}] {
					dist[Edge{i, j}] = dik + dkj
				}
			}
		}
	}

	return &DistanceTable{dist: dist}
}

// MinDistance returns the precomputed shortest distance between two
// cities, or +Inf if no path connects them.
func (d *DistanceTable) MinDistance(a, b City) float64 {
	if a == b {
		return 0
	}
	v, ok := d.dist[Edge{a, b}]
	if !ok {
		return math.Inf(1)
	}
	return v
}
