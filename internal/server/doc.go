// Package server hosts the operational HTTP endpoints that run next to the
// MCP server when driveingest is served over HTTP.
//
// MetricsServer exposes the Prometheus registry on /metrics together with
// liveness and readiness probes. It runs on its own listener so that
// scrapers never share a port with MCP traffic.
package server
