// Package metrics exposes the service's Prometheus collectors.
//
// A single Registry is created at startup and handed to the ingestion
// service, the clustering worker and the HTTP API. Its Handler is mounted
// at /metrics.
package metrics
