// Package api implements the HTTP REST API and WebSocket feed.
//
// This package provides:
//   - Telegram parsing and event ingestion endpoints
//   - Read access to stored events and the latest clustering run
//   - A WebSocket hub broadcasting stored events and clustering results
//   - Middleware (request ID, logging and metrics, recovery, CORS, body limit, JWT)
//
// # Endpoints
//
// All routes live under /api/v1 except the Prometheus scrape endpoint:
//
//	GET  /api/v1/health                 component health
//	POST /api/v1/telegrams/parse        telegram text -> document JSON
//	POST /api/v1/telegrams/parse/batch  one telegram per line
//	POST /api/v1/events                 store a telegram or document
//	GET  /api/v1/events                 paginated stored events
//	GET  /api/v1/events/{id}            one event with its cluster label
//	GET  /api/v1/clusters/summary       latest clustering run
//	POST /api/v1/clusters/compute       run clustering now
//	GET  /api/v1/ws                     live event feed
//	GET  /metrics                       Prometheus exposition
//
// # Security
//
// When security.jwt.enabled is set, the two POST routes that change stored
// state require an HS256 bearer token: POST /events needs the "ingest"
// scope, POST /clusters/compute the "cluster" scope. Parsing and reads stay
// open.
//
// Errors are returned as {"status", "code", "message"}.
package api
