// Package middleware provides the HTTP middleware used by the simulation API.
//
//   - recovery.go: panic recovery
//   - logging.go: structured request logging
//   - request_id.go: request ID generation and propagation
//   - body_limit.go: request body size limit
//   - metrics.go: Prometheus request metrics
package middleware
