package clustering

import (
	"slices"
	"testing"

	"github.com/hstefan/energy-sensors/internal/event"
)

func TestFeatures(t *testing.T) {
	rec := event.Record{
		PowerActiveW:     1753,
		PowerReactiveVAR: 279,
		PowerApparentVA:  1775,
		LineCurrentA:     7.98,
		LineVoltageV:     230.08,
	}

	tests := []struct {
		name  string
		peaks event.Peaks
		want  []float64
	}{
		{"no peaks", nil, []float64{1753, 279, 1775, 7.98, 230.08, 0, 0, 0}},
		{"one peak", event.Peaks{10.5}, []float64{1753, 279, 1775, 7.98, 230.08, 10.5, 0, 0}},
		{"extra peaks dropped", event.Peaks{1, 2, 3, 4}, []float64{1753, 279, 1775, 7.98, 230.08, 1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec.CurrentPeaks = tt.peaks
			got := Features(rec)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Features() = %v, want %v", got, tt.want)
			}
			if len(got) != len(FeatureNames) {
				t.Errorf("len(Features()) = %d, len(FeatureNames) = %d", len(got), len(FeatureNames))
			}
		})
	}
}

func TestStats(t *testing.T) {
	records := []event.Record{
		{PowerActiveW: 100, PowerReactiveVAR: 10, PowerApparentVA: 110, LineCurrentA: 1, LineVoltageV: 230},
		{PowerActiveW: 200, PowerReactiveVAR: 20, PowerApparentVA: 220, LineCurrentA: 2, LineVoltageV: 232},
		{PowerActiveW: 2000, PowerReactiveVAR: 300, PowerApparentVA: 2100, LineCurrentA: 9, LineVoltageV: 228},
		{PowerActiveW: 9999, PowerReactiveVAR: 9999, PowerApparentVA: 9999, LineCurrentA: 99, LineVoltageV: 9},
	}
	labels := []int{1, 1, 0, Orphan}
	centers := [][]float64{{2000}, {150}, {42}}

	got := Stats(records, labels, centers)
	if len(got) != 4 {
		t.Fatalf("Stats() returned %d clusters, want 3 plus orphans", len(got))
	}

	if got[0].Label != 0 || got[0].Size != 1 || got[0].AvgPowerActiveW != 2000 {
		t.Errorf("cluster 0 = %+v", got[0])
	}

	c1 := got[1]
	if c1.Size != 2 {
		t.Errorf("cluster 1 size = %d, want 2", c1.Size)
	}
	if c1.AvgPowerActiveW != 150 || c1.AvgPowerReactiveVAR != 15 || c1.AvgPowerApparentVA != 165 {
		t.Errorf("cluster 1 power averages = %v/%v/%v", c1.AvgPowerActiveW, c1.AvgPowerReactiveVAR, c1.AvgPowerApparentVA)
	}
	if c1.AvgLineCurrentA != 1.5 || c1.AvgLineVoltageV != 231 {
		t.Errorf("cluster 1 line averages = %v/%v", c1.AvgLineCurrentA, c1.AvgLineVoltageV)
	}
	if !slices.Equal(c1.Center, []float64{150}) {
		t.Errorf("cluster 1 center = %v", c1.Center)
	}

	if got[2].Size != 0 || got[2].AvgPowerActiveW != 0 {
		t.Errorf("empty cluster 2 = %+v", got[2])
	}

	orphans := got[3]
	if orphans.Label != Orphan || orphans.Size != 1 || orphans.Center != nil {
		t.Errorf("orphan group = %+v", orphans)
	}
	if orphans.AvgPowerActiveW != 9999 || orphans.AvgLineVoltageV != 9 {
		t.Errorf("orphan averages = %v/%v", orphans.AvgPowerActiveW, orphans.AvgLineVoltageV)
	}
}

func TestStats_NoOrphans(t *testing.T) {
	records := []event.Record{{PowerActiveW: 100}, {PowerActiveW: 300}}

	got := Stats(records, []int{0, 0}, [][]float64{{200}})
	if len(got) != 1 {
		t.Fatalf("Stats() returned %d clusters, want 1", len(got))
	}
	if got[0].Label != 0 || got[0].Size != 2 || got[0].AvgPowerActiveW != 200 {
		t.Errorf("cluster 0 = %+v", got[0])
	}
}
