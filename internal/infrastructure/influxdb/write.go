package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by this package.
const (
	MeasurementPower       = "power"
	MeasurementClusterRun  = "cluster_run"
	MeasurementClusterSize = "cluster_size"
)

// PowerSample is one stored event reduced to its electrical readings.
type PowerSample struct {
	DeviceID     int64
	Firmware     int64
	ReportedAt   time.Time
	CoilReversed bool

	ActiveW     float64
	ReactiveVAR float64
	ApparentVA  float64
	CurrentA    float64
	VoltageV    float64
	PhaseRad    float64
	FrequencyHz float64
	WiFiDBM     float64
}

// WritePowerSample queues a "power" point tagged by device and firmware,
// timestamped with the time the device reported.
func (c *Client) WritePowerSample(s PowerSample) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		MeasurementPower,
		map[string]string{
			"device_id": strconv.FormatInt(s.DeviceID, 10),
			"fw":        strconv.FormatInt(s.Firmware, 10),
		},
		map[string]any{
			"active_w":      s.ActiveW,
			"reactive_var":  s.ReactiveVAR,
			"apparent_va":   s.ApparentVA,
			"current_a":     s.CurrentA,
			"voltage_v":     s.VoltageV,
			"phase_rad":     s.PhaseRad,
			"frequency_hz":  s.FrequencyHz,
			"wifi_dbm":      s.WiFiDBM,
			"coil_reversed": s.CoilReversed,
		},
		s.ReportedAt,
	)

	c.writeAPI.WritePoint(point)
}

// WriteClusterRun queues one "cluster_run" point and one "cluster_size"
// point per label.
//
// Parameters:
//   - runID: identifier of the clustering run
//   - events: number of events clustered
//   - orphans: events left without a cluster
//   - bandwidth: kernel bandwidth used
//   - sizes: cluster label to member count
//   - at: completion time
func (c *Client) WriteClusterRun(runID string, events, orphans int, bandwidth float64, sizes map[int]int, at time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementClusterRun,
		map[string]string{"run_id": runID},
		map[string]any{
			"events":    events,
			"clusters":  len(sizes),
			"orphans":   orphans,
			"bandwidth": bandwidth,
		},
		at,
	))

	for label, size := range sizes {
		c.writeAPI.WritePoint(write.NewPoint(
			MeasurementClusterSize,
			map[string]string{"label": strconv.Itoa(label)},
			map[string]any{"size": size},
			at,
		))
	}
}

// WritePoint queues a custom point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime queues a custom point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
