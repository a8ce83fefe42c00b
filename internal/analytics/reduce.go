// Footfall - Retail Traffic Analytics and Dashboard Charts
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/footfall

package analytics

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Reduction names a projection to two dimensions for the cluster scatter.
type Reduction string

const (
	ReductionPCA  Reduction = "pca"
	ReductionTSNE Reduction = "tsne"
)

// ParseReduction accepts "pca", "tsne" and "t-sne" in any case. The empty
// string selects t-SNE.
func ParseReduction(s string) (Reduction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "tsne", "t-sne":
		return ReductionTSNE, nil
	case "pca":
		return ReductionPCA, nil
	}
	return "", fmt.Errorf("unknown reduction %q", s)
}

// Label is the axis caption prefix for the projection.
func (r Reduction) Label() string {
	if r == ReductionPCA {
		return "PCA"
	}
	return "t-SNE"
}

// Reduce projects x to two dimensions.
func Reduce(x [][]float64, r Reduction) ([][2]float64, error) {
	switch r {
	case ReductionPCA:
		return PCA2(x)
	case ReductionTSNE:
		return TSNE2(x, TSNEConfig{})
	}
	return nil, fmt.Errorf("unknown reduction %q", r)
}

// PCA2 projects the centred rows of x onto their first two principal
// components. Each component is signed so its largest loading is positive.
func PCA2(x [][]float64) ([][2]float64, error) {
	n := len(x)
	if n < 2 {
		return nil, errors.New("pca needs at least two rows")
	}
	d := len(x[0])
	if d < 2 {
		return nil, errors.New("pca needs at least two features")
	}

	data := mat.NewDense(n, d, nil)
	for i := range x {
		data.SetRow(i, x[i])
	}
	for j := 0; j < d; j++ {
		col := mat.Col(nil, j, data)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			data.Set(i, j, col[i]-mean)
		}
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return nil, errors.New("pca decomposition failed")
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	basis := mat.DenseCopyOf(vecs.Slice(0, d, 0, 2))
	for c := 0; c < 2; c++ {
		maxAbs, sign := 0.0, 1.0
		for j := 0; j < d; j++ {
			if v := basis.At(j, c); math.Abs(v) > maxAbs {
				maxAbs = math.Abs(v)
				sign = math.Copysign(1, v)
			}
		}
		if sign < 0 {
			for j := 0; j < d; j++ {
				basis.Set(j, c, -basis.At(j, c))
			}
		}
	}

	var proj mat.Dense
	proj.Mul(data, basis)
	out := make([][2]float64, n)
	for i := range out {
		out[i] = [2]float64{proj.At(i, 0), proj.At(i, 1)}
	}
	return out, nil
}

// TSNEConfig tunes TSNE2. Zero values take the defaults noted.
type TSNEConfig struct {
	// Perplexity defaults to min(10, n-1).
	Perplexity float64
	// Iterations defaults to 1000.
	Iterations int
	// LearningRate defaults to max(n/12/4, 50).
	LearningRate float64
	Seed         int64
}

const (
	tsneExaggeration   = 12.0
	tsneExaggerateIter = 250
	tsneMinGain        = 0.01
	tsneMachineEps     = 2.220446049250313e-16
)

// TSNE2 embeds x in two dimensions with exact t-SNE, initialised from PCA.
func TSNE2(x [][]float64, cfg TSNEConfig) ([][2]float64, error) {
	n := len(x)
	if n < 2 {
		return nil, errors.New("t-sne needs at least two rows")
	}
	if cfg.Perplexity <= 0 {
		cfg.Perplexity = math.Min(10, float64(n-1))
	}
	if cfg.Perplexity >= float64(n) {
		return nil, fmt.Errorf("perplexity %.0f must be below the number of rows %d", cfg.Perplexity, n)
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = math.Max(float64(n)/tsneExaggeration/4, 50)
	}
	if cfg.Seed == 0 {
		cfg.Seed = ClusterSeed
	}

	p := jointProbabilities(x, cfg.Perplexity)
	y, err := tsneInit(x, cfg.Seed)
	if err != nil {
		return nil, err
	}

	update := make([][2]float64, n)
	gains := make([][2]float64, n)
	for i := range gains {
		gains[i] = [2]float64{1, 1}
	}
	num := make([][]float64, n)
	for i := range num {
		num[i] = make([]float64, n)
	}
	grad := make([][2]float64, n)

	for it := 0; it < cfg.Iterations; it++ {
		exaggeration, momentum := 1.0, 0.8
		if it < tsneExaggerateIter {
			exaggeration, momentum = tsneExaggeration, 0.5
		}

		sum := 0.0
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				dx, dy := y[i][0]-y[j][0], y[i][1]-y[j][1]
				v := 1 / (1 + dx*dx + dy*dy)
				num[i][j], num[j][i] = v, v
				sum += 2 * v
			}
		}
		if sum == 0 {
			sum = tsneMachineEps
		}
		for i := 0; i < n; i++ {
			grad[i] = [2]float64{}
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				q := math.Max(num[i][j]/sum, tsneMachineEps)
				w := 4 * (exaggeration*p[i][j] - q) * num[i][j]
				grad[i][0] += w * (y[i][0] - y[j][0])
				grad[i][1] += w * (y[i][1] - y[j][1])
			}
		}

		for i := 0; i < n; i++ {
			for c := 0; c < 2; c++ {
				if update[i][c]*grad[i][c] < 0 {
					gains[i][c] += 0.2
				} else {
					gains[i][c] *= 0.8
				}
				if gains[i][c] < tsneMinGain {
					gains[i][c] = tsneMinGain
				}
				update[i][c] = momentum*update[i][c] - cfg.LearningRate*gains[i][c]*grad[i][c]
				y[i][c] += update[i][c]
			}
		}
	}
	return y, nil
}

// jointProbabilities returns the symmetric affinity matrix P, calibrating
// a Gaussian per row so its entropy matches log(perplexity).
func jointProbabilities(x [][]float64, perplexity float64) [][]float64 {
	n := len(x)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			dist[i][j] = sqDist(x[i], x[j])
		}
	}

	target := math.Log(perplexity)
	cond := make([][]float64, n)
	for i := 0; i < n; i++ {
		cond[i] = make([]float64, n)
		beta, lo, hi := 1.0, math.Inf(-1), math.Inf(1)
		for step := 0; step < 100; step++ {
			sumP := 0.0
			for j := 0; j < n; j++ {
				if j == i {
					cond[i][j] = 0
					continue
				}
				cond[i][j] = math.Exp(-dist[i][j] * beta)
				sumP += cond[i][j]
			}
			if sumP == 0 {
				sumP = 1e-8
			}
			sumDistP := 0.0
			for j := 0; j < n; j++ {
				cond[i][j] /= sumP
				sumDistP += dist[i][j] * cond[i][j]
			}
			entropy := math.Log(sumP) + beta*sumDistP
			diff := entropy - target
			if math.Abs(diff) <= 1e-5 {
				break
			}
			if diff > 0 {
				lo = beta
				if math.IsInf(hi, 1) {
					beta *= 2
				} else {
					beta = (beta + hi) / 2
				}
			} else {
				hi = beta
				if math.IsInf(lo, -1) {
					beta /= 2
				} else {
					beta = (beta + lo) / 2
				}
			}
		}
	}

	p := make([][]float64, n)
	total := 0.0
	for i := 0; i < n; i++ {
		p[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			p[i][j] = cond[i][j] + cond[j][i]
			total += p[i][j]
		}
	}
	total = math.Max(total, tsneMachineEps)
	for i := range p {
		for j := range p[i] {
			if i == j {
				p[i][j] = 0
				continue
			}
			p[i][j] = math.Max(p[i][j]/total, tsneMachineEps)
		}
	}
	return p
}

// tsneInit starts from the PCA projection scaled so the first axis has a
// standard deviation of 1e-4. Inputs PCA cannot handle start from a small
// seeded Gaussian instead.
func tsneInit(x [][]float64, seed int64) ([][2]float64, error) {
	n := len(x)
	y, err := PCA2(x)
	if err == nil {
		first := make([]float64, n)
		for i := range y {
			first[i] = y[i][0]
		}
		_, std := stat.PopMeanStdDev(first, nil)
		if std > 0 {
			for i := range y {
				y[i][0] = y[i][0] / std * 1e-4
				y[i][1] = y[i][1] / std * 1e-4
			}
			return y, nil
		}
	}
	rng := rand.New(rand.NewSource(seed))
	y = make([][2]float64, n)
	for i := range y {
		y[i] = [2]float64{rng.NormFloat64() * 1e-4, rng.NormFloat64() * 1e-4}
	}
	return y, nil
}
