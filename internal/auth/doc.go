// Package auth issues and verifies the HS256 bearer tokens that guard the
// ingestion endpoints.
//
// Tokens carry the standard registered claims plus a scope. The API
// middleware accepts a token when its signature, expiry and issuer check
// out and its scope covers the route. The sendevents tool uses
// GenerateToken to sign its own requests from a shared secret.
package auth
