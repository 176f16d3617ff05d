// Package ingest turns raw telegrams into stored events.
//
// Service.Ingest parses a telegram, maps it onto an event.Record, stores
// it and then fans the stored event out: an InfluxDB power point, an MQTT
// event message, a WebSocket broadcast and a tick of the clustering batch
// worker. Fan-out failures are logged and never fail the ingestion.
//
// Subscriber feeds telegrams published on the broker into the same path.
package ingest
