package clustering

import (
	"gonum.org/v1/gonum/stat"

	"github.com/hstefan/energy-sensors/internal/event"
)

// Cluster is the summary of one cluster of a run.
type Cluster struct {
	Label int `json:"label"`
	Size  int `json:"size"`

	AvgPowerActiveW     float64 `json:"avg_power_active_w"`
	AvgPowerReactiveVAR float64 `json:"avg_power_reactive_var"`
	AvgPowerApparentVA  float64 `json:"avg_power_apparent_va"`
	AvgLineCurrentA     float64 `json:"avg_line_current_a"`
	AvgLineVoltageV     float64 `json:"avg_line_voltage_v"`

	// Center is the mean-shift mode in feature space (see FeatureNames).
	// The orphan group has none.
	Center []float64 `json:"center,omitempty"`
}

// Stats groups records by label and averages their electrical readings.
// The first len(centers) entries are indexed by label; labels without
// members keep Size 0. When any record is an orphan, a final entry with
// Label Orphan and no center summarises them.
func Stats(records []event.Record, labels []int, centers [][]float64) []Cluster {
	// cols[len(centers)] collects the orphans.
	cols := make([][5][]float64, len(centers)+1)

	for i, rec := range records {
		label := labels[i]
		switch {
		case label == Orphan:
			label = len(centers)
		case label < 0 || label >= len(centers):
			continue
		}
		c := &cols[label]
		c[0] = append(c[0], rec.PowerActiveW)
		c[1] = append(c[1], rec.PowerReactiveVAR)
		c[2] = append(c[2], rec.PowerApparentVA)
		c[3] = append(c[3], rec.LineCurrentA)
		c[4] = append(c[4], rec.LineVoltageV)
	}

	out := make([]Cluster, len(centers), len(centers)+1)
	for label, center := range centers {
		out[label] = summarise(label, cols[label])
		out[label].Center = center
	}
	if orphans := cols[len(centers)]; len(orphans[0]) > 0 {
		out = append(out, summarise(Orphan, orphans))
	}
	return out
}

func summarise(label int, c [5][]float64) Cluster {
	out := Cluster{Label: label, Size: len(c[0])}
	if out.Size == 0 {
		return out
	}
	out.AvgPowerActiveW = stat.Mean(c[0], nil)
	out.AvgPowerReactiveVAR = stat.Mean(c[1], nil)
	out.AvgPowerApparentVA = stat.Mean(c[2], nil)
	out.AvgLineCurrentA = stat.Mean(c[3], nil)
	out.AvgLineVoltageV = stat.Mean(c[4], nil)
	return out
}

// Orphans counts the labels equal to Orphan.
func Orphans(labels []int) int {
	n := 0
	for _, l := range labels {
		if l == Orphan {
			n++
		}
	}
	return n
}
