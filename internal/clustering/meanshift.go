package clustering

import (
	"cmp"
	"fmt"
	"math"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Orphan is the label of points farther than the bandwidth from every
// center when ClusterAll is false.
const Orphan = -1

const (
	defaultMaxIterations = 300

	// convergenceFactor times the bandwidth is the shift below which a
	// seed is considered converged.
	convergenceFactor = 1e-3
)

// MeanShift clusters points with a flat kernel of radius Bandwidth.
type MeanShift struct {
	Bandwidth float64

	// BinSeeding starts from one seed per occupied grid cell of size
	// Bandwidth instead of one seed per point.
	BinSeeding bool

	// MinBinFrequency drops grid cells with fewer points. Values below 1
	// are treated as 1.
	MinBinFrequency int

	// ClusterAll labels every point with its nearest center. When false,
	// points outside the bandwidth of all centers get Orphan.
	ClusterAll bool

	// MaxIterations bounds the shifts per seed. Zero means 300.
	MaxIterations int
}

// EstimateBandwidth returns the mean distance from each of the first
// nSamples points to its k-th nearest neighbour among those same points,
// k = quantile * nSamples (the point itself counts as the first).
// nSamples <= 0 or larger than len(data) uses every point.
func EstimateBandwidth(data [][]float64, quantile float64, nSamples int) (float64, error) {
	if len(data) == 0 {
		return 0, ErrNoData
	}
	if quantile <= 0 || quantile > 1 {
		return 0, ErrInvalidQuantile
	}
	if err := checkDimensions(data); err != nil {
		return 0, err
	}

	if nSamples <= 0 || nSamples > len(data) {
		nSamples = len(data)
	}
	sample := data[:nSamples]
	k := max(int(float64(nSamples)*quantile), 1)

	dist := make([]float64, nSamples)
	var total float64
	for _, p := range sample {
		for j, q := range sample {
			dist[j] = floats.Distance(p, q, 2)
		}
		slices.Sort(dist)
		total += dist[k-1]
	}
	return total / float64(nSamples), nil
}

// Fit clusters data and returns one label per point together with the
// cluster centers, ordered by decreasing density. labels[i] indexes
// centers or is Orphan.
func (m MeanShift) Fit(data [][]float64) ([]int, [][]float64, error) {
	if len(data) == 0 {
		return nil, nil, ErrNoData
	}
	if !(m.Bandwidth > 0) || math.IsInf(m.Bandwidth, 0) {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidBandwidth, m.Bandwidth)
	}
	if err := checkDimensions(data); err != nil {
		return nil, nil, err
	}

	seeds := data
	if m.BinSeeding {
		seeds = binSeeds(data, m.Bandwidth, max(m.MinBinFrequency, 1))
	}

	modes, err := m.shiftSeeds(data, seeds)
	if err != nil {
		return nil, nil, err
	}
	centers := m.mergeModes(modes)

	labels := make([]int, len(data))
	for i, p := range data {
		best, bestDist := 0, math.Inf(1)
		for c, center := range centers {
			if d := floats.Distance(p, center, 2); d < bestDist {
				best, bestDist = c, d
			}
		}
		if !m.ClusterAll && bestDist > m.Bandwidth {
			best = Orphan
		}
		labels[i] = best
	}
	return labels, centers, nil
}

// mode is a converged seed and the number of points within the bandwidth.
type mode struct {
	center    []float64
	intensity int
}

// shiftSeeds moves every seed to its local density maximum in parallel.
// Seeds that never had a neighbour are dropped.
func (m MeanShift) shiftSeeds(data, seeds [][]float64) ([]mode, error) {
	results := make([]mode, len(seeds))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, seed := range seeds {
		g.Go(func() error {
			results[i] = m.shift(data, seed)
			return nil
		})
	}
	_ = g.Wait()

	modes := slices.DeleteFunc(results, func(md mode) bool { return md.intensity == 0 })
	if len(modes) == 0 {
		return nil, ErrNoConvergence
	}
	return modes, nil
}

func (m MeanShift) shift(data [][]float64, seed []float64) mode {
	maxIter := m.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}
	threshold := convergenceFactor * m.Bandwidth

	mean := slices.Clone(seed)
	next := make([]float64, len(seed))
	var md mode
	for range maxIter {
		clear(next)
		n := 0
		for _, p := range data {
			if floats.Distance(p, mean, 2) <= m.Bandwidth {
				floats.Add(next, p)
				n++
			}
		}
		if n == 0 {
			break
		}
		floats.Scale(1/float64(n), next)

		shifted := floats.Distance(next, mean, 2)
		copy(mean, next)
		md = mode{center: slices.Clone(mean), intensity: n}
		if shifted <= threshold {
			break
		}
	}
	return md
}

// mergeModes keeps the densest modes and drops any mode within the
// bandwidth of one already kept.
func (m MeanShift) mergeModes(modes []mode) [][]float64 {
	slices.SortStableFunc(modes, func(a, b mode) int {
		if c := cmp.Compare(b.intensity, a.intensity); c != 0 {
			return c
		}
		return slices.Compare(b.center, a.center)
	})

	var centers [][]float64
	for _, md := range modes {
		near := slices.ContainsFunc(centers, func(c []float64) bool {
			return floats.Distance(c, md.center, 2) <= m.Bandwidth
		})
		if !near {
			centers = append(centers, md.center)
		}
	}
	return centers
}

// binSeeds snaps points onto a grid of the given cell size and returns
// one seed per cell holding at least minFreq points. When every point
// lands in its own cell the points themselves are returned.
func binSeeds(data [][]float64, binSize float64, minFreq int) [][]float64 {
	type cell struct {
		coord []float64
		count int
	}

	var cells []*cell
	index := make(map[string]*cell)
	for _, p := range data {
		coord := make([]float64, len(p))
		for i, v := range p {
			coord[i] = math.Round(v / binSize)
		}
		key := fmt.Sprint(coord)
		c, ok := index[key]
		if !ok {
			c = &cell{coord: coord}
			index[key] = c
			cells = append(cells, c)
		}
		c.count++
	}

	seeds := make([][]float64, 0, len(cells))
	for _, c := range cells {
		if c.count < minFreq {
			continue
		}
		floats.Scale(binSize, c.coord)
		seeds = append(seeds, c.coord)
	}
	if len(seeds) == len(data) || len(seeds) == 0 {
		return data
	}
	return seeds
}

func checkDimensions(data [][]float64) error {
	dim := len(data[0])
	for i, p := range data {
		if len(p) != dim {
			return fmt.Errorf("%w: point %d has %d values, want %d", ErrDimensionMismatch, i, len(p), dim)
		}
	}
	return nil
}
