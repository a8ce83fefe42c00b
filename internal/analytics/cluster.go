// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package analytics

import (
	"errors"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ClusterSeed seeds k-means and t-SNE so a page renders the same clusters
// on every load.
const ClusterSeed = 42

// StandardScale centres every column of x on 0 with unit population
// standard deviation. Constant columns are only centred.
func StandardScale(x [][]float64) [][]float64 {
	if len(x) == 0 {
		return nil
	}
	d := len(x[0])
	out := make([][]float64, len(x))
	for i := range out {
		out[i] = make([]float64, d)
	}
	col := make([]float64, len(x))
	for j := 0; j < d; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		for i := range x {
			out[i][j] = (x[i][j] - mean) / std
		}
	}
	return out
}

// KMeansConfig tunes KMeans. Zero values take the defaults noted.
type KMeansConfig struct {
	K int
	// Restarts is the number of k-means++ initialisations, default 10.
	Restarts int
	// MaxIter bounds Lloyd iterations per restart, default 300.
	MaxIter int
	// Tol is the centre shift, relative to the mean feature variance,
	// below which a run has converged. Default 1e-4.
	Tol  float64
	Seed int64
}

// KMeansResult is the best run: labels per point, centres and inertia (sum
// of squared distances to the assigned centre).
type KMeansResult struct {
	Labels  []int
	Centers [][]float64
	Inertia float64
}

// KMeans clusters x with Lloyd's algorithm from k-means++ seeds, keeping
// the restart with the lowest inertia. Labels are renumbered in order of
// first appearance in x.
func KMeans(x [][]float64, cfg KMeansConfig) (*KMeansResult, error) {
	n := len(x)
	if cfg.K < 1 {
		return nil, errors.New("k must be at least 1")
	}
	if n < cfg.K {
		return nil, errors.New("fewer points than clusters")
	}
	if cfg.Restarts <= 0 {
		cfg.Restarts = 10
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 300
	}
	if cfg.Tol <= 0 {
		cfg.Tol = 1e-4
	}
	tol := cfg.Tol * meanVariance(x)

	rng := rand.New(rand.NewSource(cfg.Seed))
	var best *KMeansResult
	for r := 0; r < cfg.Restarts; r++ {
		centers := kmeansPlusPlus(x, cfg.K, rng)
		res := lloyd(x, centers, cfg.MaxIter, tol)
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}
	relabel(best)
	return best, nil
}

func meanVariance(x [][]float64) float64 {
	d := len(x[0])
	col := make([]float64, len(x))
	total := 0.0
	for j := 0; j < d; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		_, std := stat.PopMeanStdDev(col, nil)
		total += std * std
	}
	return total / float64(d)
}

func sqDist(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		d := a[i] - b[i]
		s += d * d
	}
	return s
}

// kmeansPlusPlus picks k centres, each further candidate sampled in
// proportion to its squared distance from the chosen ones. Every step tries
// 2+ln(k) candidates and keeps the one that lowers the potential most.
func kmeansPlusPlus(x [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(x)
	trials := 2 + int(math.Log(float64(k)))

	centers := make([][]float64, 0, k)
	first := rng.Intn(n)
	centers = append(centers, append([]float64(nil), x[first]...))

	closest := make([]float64, n)
	for i := range x {
		closest[i] = sqDist(x[i], centers[0])
	}
	cumulative := make([]float64, n)

	for c := 1; c < k; c++ {
		potential := floats.Sum(closest)
		floats.CumSum(cumulative, closest)

		bestCandidate, bestPotential := -1, math.Inf(1)
		var bestClosest []float64
		for t := 0; t < trials; t++ {
			var cand int
			if potential == 0 {
				cand = rng.Intn(n)
			} else {
				cand = searchCumulative(cumulative, rng.Float64()*potential)
			}
			next := make([]float64, n)
			for i := range x {
				next[i] = math.Min(closest[i], sqDist(x[i], x[cand]))
			}
			if p := floats.Sum(next); p < bestPotential {
				bestCandidate, bestPotential, bestClosest = cand, p, next
			}
		}
		centers = append(centers, append([]float64(nil), x[bestCandidate]...))
		closest = bestClosest
	}
	return centers
}

func searchCumulative(cumulative []float64, v float64) int {
	lo, hi := 0, len(cumulative)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cumulative[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func lloyd(x [][]float64, centers [][]float64, maxIter int, tol float64) *KMeansResult {
	n, k, d := len(x), len(centers), len(x[0])
	labels := make([]int, n)

	assign := func() float64 {
		inertia := 0.0
		for i := range x {
			best, bestD := 0, math.Inf(1)
			for c := range centers {
				if dist := sqDist(x[i], centers[c]); dist < bestD {
					best, bestD = c, dist
				}
			}
			labels[i] = best
			inertia += bestD
		}
		return inertia
	}

	for iter := 0; iter < maxIter; iter++ {
		assign()

		next := make([][]float64, k)
		counts := make([]int, k)
		for c := range next {
			next[c] = make([]float64, d)
		}
		for i, l := range labels {
			floats.Add(next[l], x[i])
			counts[l]++
		}
		for c := range next {
			if counts[c] > 0 {
				floats.Scale(1/float64(counts[c]), next[c])
			}
		}
		reseeded := reseedEmpty(x, centers, labels, counts, next)

		shift := 0.0
		for c := range centers {
			shift += sqDist(centers[c], next[c])
		}
		centers = next
		// A reseed moves points between clusters; labels and means must be
		// recomputed before convergence is judged.
		if shift <= tol && !reseeded {
			break
		}
	}
	inertia := assign()
	return &KMeansResult{Labels: labels, Centers: centers, Inertia: inertia}
}

// reseedEmpty moves the centre of each empty cluster onto the point furthest
// from its current centre. A point seeds at most one cluster. It reports
// whether any cluster was reseeded.
func reseedEmpty(x, centers [][]float64, labels, counts []int, next [][]float64) bool {
	taken := make(map[int]bool)
	for c := range next {
		if counts[c] > 0 {
			continue
		}
		far, farD := -1, -1.0
		for i := range x {
			if taken[i] {
				continue
			}
			if dist := sqDist(x[i], centers[labels[i]]); dist > farD {
				far, farD = i, dist
			}
		}
		if far < 0 {
			// More empty clusters than points: keep the old centre.
			copy(next[c], centers[c])
			continue
		}
		taken[far] = true
		copy(next[c], x[far])
	}
	return len(taken) > 0
}

// relabel numbers clusters by first appearance.
func relabel(res *KMeansResult) {
	mapping := make(map[int]int)
	for _, l := range res.Labels {
		if _, ok := mapping[l]; !ok {
			mapping[l] = len(mapping)
		}
	}
	for old := range res.Centers {
		if _, ok := mapping[old]; !ok {
			mapping[old] = len(mapping)
		}
	}
	centers := make([][]float64, len(res.Centers))
	for old, c := range res.Centers {
		centers[mapping[old]] = c
	}
	for i, l := range res.Labels {
		res.Labels[i] = mapping[l]
	}
	res.Centers = centers
}
