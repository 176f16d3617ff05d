package clustering

import "github.com/hstefan/energy-sensors/internal/event"

// peakFeatures is the number of current peaks included in a feature vector.
const peakFeatures = 3

// FeatureNames labels the columns returned by Features.
var FeatureNames = []string{
	"power_active_w",
	"power_reactive_var",
	"power_apparent_va",
	"line_current_a",
	"line_voltage_v",
	"peak_0",
	"peak_1",
	"peak_2",
}

// Features returns the clustering vector of an event: active, reactive
// and apparent power, line current and voltage, then the first three
// current peaks padded with zeros.
func Features(rec event.Record) []float64 {
	f := make([]float64, 5, 5+peakFeatures)
	f[0] = rec.PowerActiveW
	f[1] = rec.PowerReactiveVAR
	f[2] = rec.PowerApparentVA
	f[3] = rec.LineCurrentA
	f[4] = rec.LineVoltageV
	for i := range peakFeatures {
		var v float64
		if i < len(rec.CurrentPeaks) {
			v = rec.CurrentPeaks[i]
		}
		f = append(f, v)
	}
	return f
}
