package clustering

import (
	"errors"
	"math"
	"testing"
)

func approxEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestEstimateBandwidth(t *testing.T) {
	data := [][]float64{{0}, {1}, {2}, {10}}

	tests := []struct {
		name     string
		quantile float64
		samples  int
		want     float64
	}{
		{"nearest other point", 0.5, 0, 2.75},
		{"all samples explicit", 0.5, 4, 2.75},
		{"first two samples", 1, 2, 1},
		{"farthest point", 1, 0, 9.25},
		{"tiny quantile uses self", 0.01, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimateBandwidth(data, tt.quantile, tt.samples)
			if err != nil {
				t.Fatalf("EstimateBandwidth() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EstimateBandwidth() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEstimateBandwidth_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     [][]float64
		quantile float64
		wantErr  error
	}{
		{"no data", nil, 0.3, ErrNoData},
		{"zero quantile", [][]float64{{1}}, 0, ErrInvalidQuantile},
		{"quantile above one", [][]float64{{1}}, 1.5, ErrInvalidQuantile},
		{"ragged", [][]float64{{1, 2}, {1}}, 0.3, ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := EstimateBandwidth(tt.data, tt.quantile, 0); !errors.Is(err, tt.wantErr) {
				t.Errorf("EstimateBandwidth() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func twoBlobs() [][]float64 {
	return [][]float64{
		{0, 0}, {0, 1}, {1, 0}, {1, 1},
		{10, 10}, {10, 11}, {11, 10}, {11, 11},
	}
}

func TestFit_TwoBlobs(t *testing.T) {
	for _, binSeeding := range []bool{false, true} {
		ms := MeanShift{Bandwidth: 2, BinSeeding: binSeeding, ClusterAll: true}

		labels, centers, err := ms.Fit(twoBlobs())
		if err != nil {
			t.Fatalf("Fit(binSeeding=%v) error = %v", binSeeding, err)
		}
		if len(centers) != 2 {
			t.Fatalf("Fit(binSeeding=%v) found %d centers, want 2: %v", binSeeding, len(centers), centers)
		}

		for i := 1; i < 4; i++ {
			if labels[i] != labels[0] {
				t.Errorf("labels[%d] = %d, want %d", i, labels[i], labels[0])
			}
			if labels[4+i] != labels[4] {
				t.Errorf("labels[%d] = %d, want %d", 4+i, labels[4+i], labels[4])
			}
		}
		if labels[0] == labels[4] {
			t.Fatalf("both blobs share label %d", labels[0])
		}

		if !approxEqual(centers[labels[0]], []float64{0.5, 0.5}) {
			t.Errorf("center of first blob = %v, want [0.5 0.5]", centers[labels[0]])
		}
		if !approxEqual(centers[labels[4]], []float64{10.5, 10.5}) {
			t.Errorf("center of second blob = %v, want [10.5 10.5]", centers[labels[4]])
		}
	}
}

func TestFit_Orphans(t *testing.T) {
	data := [][]float64{
		{0, 0}, {0, 0.2}, {0.2, 0}, {0.2, 0.2},
		{10, 10}, {10, 10.2}, {10.2, 10}, {10.2, 10.2},
		{50, 50},
	}

	ms := MeanShift{Bandwidth: 2, BinSeeding: true, MinBinFrequency: 2}
	labels, centers, err := ms.Fit(data)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if len(centers) != 2 {
		t.Fatalf("Fit() found %d centers, want 2", len(centers))
	}
	if labels[8] != Orphan {
		t.Errorf("outlier label = %d, want Orphan", labels[8])
	}
	if got := Orphans(labels); got != 1 {
		t.Errorf("Orphans() = %d, want 1", got)
	}

	ms.ClusterAll = true
	labels, _, err = ms.Fit(data)
	if err != nil {
		t.Fatalf("Fit(ClusterAll) error = %v", err)
	}
	if labels[8] != labels[4] {
		t.Errorf("outlier label with ClusterAll = %d, want nearest cluster %d", labels[8], labels[4])
	}
}

func TestFit_DensestFirst(t *testing.T) {
	data := [][]float64{{0}, {0.1}, {20}, {20.1}, {20.2}}

	labels, centers, err := MeanShift{Bandwidth: 1, ClusterAll: true}.Fit(data)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if len(centers) != 2 {
		t.Fatalf("Fit() found %d centers, want 2", len(centers))
	}
	if labels[2] != 0 || labels[0] != 1 {
		t.Errorf("labels = %v, want the three-point group first", labels)
	}
}

func TestFit_Errors(t *testing.T) {
	tests := []struct {
		name      string
		bandwidth float64
		data      [][]float64
		wantErr   error
	}{
		{"no data", 1, nil, ErrNoData},
		{"zero bandwidth", 0, [][]float64{{1}}, ErrInvalidBandwidth},
		{"nan bandwidth", math.NaN(), [][]float64{{1}}, ErrInvalidBandwidth},
		{"infinite bandwidth", math.Inf(1), [][]float64{{1}}, ErrInvalidBandwidth},
		{"ragged", 1, [][]float64{{1}, {1, 2}}, ErrDimensionMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := MeanShift{Bandwidth: tt.bandwidth}.Fit(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Fit() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestFit_SinglePoint(t *testing.T) {
	labels, centers, err := MeanShift{Bandwidth: 1}.Fit([][]float64{{3, 4}})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if len(centers) != 1 || labels[0] != 0 {
		t.Errorf("Fit() = %v, %v", labels, centers)
	}
}

func TestBinSeeds(t *testing.T) {
	data := [][]float64{{0.1}, {0.2}, {0.3}, {4.1}, {9.9}}

	seeds := binSeeds(data, 1, 2)
	if len(seeds) != 1 || seeds[0][0] != 0 {
		t.Errorf("binSeeds(minFreq=2) = %v, want [[0]]", seeds)
	}

	// One seed per point means binning saved nothing; the points are used.
	distinct := [][]float64{{0}, {5}, {10}}
	if seeds := binSeeds(distinct, 1, 1); len(seeds) != 3 || seeds[1][0] != 5 {
		t.Errorf("binSeeds(distinct) = %v, want the input points", seeds)
	}
}
