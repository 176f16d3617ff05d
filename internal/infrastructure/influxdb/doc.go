// Package influxdb writes time-series points for stored events and
// clustering runs to InfluxDB 2.x.
//
// Writes go through the non-blocking batched write API of
// influxdb-client-go/v2. They are silently dropped when the client is not
// connected, so callers do not need to check before every write.
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // time series disabled
//	}
//	defer client.Close()
//
//	client.WritePowerSample(influxdb.PowerSample{DeviceID: 42, ActiveW: 1753})
package influxdb
