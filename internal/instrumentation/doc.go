// Package instrumentation provides OpenTelemetry metrics and tracing for driveingest.
//
// # Metrics
//
// Google API Metrics:
//   - google_api_operations_total: Counter of Google API operations by service, operation, status
//   - google_api_operation_duration_seconds: Histogram of Google API operation durations
//
// Ingestion Metrics:
//   - ingest_documents_total: Counter of produced documents by kind (google_doc, file)
//   - ingest_entries_skipped_total: Counter of skipped Drive entries by reason
//   - ingest_runs_total: Counter of folder ingestion runs by status
//   - ingest_run_duration_seconds: Histogram of folder ingestion run durations
//
// MCP Tool Metrics:
//   - mcp_tool_invocations_total: Counter of MCP tool invocations by tool name and status
//   - mcp_tool_duration_seconds: Histogram of MCP tool execution durations
//
// # Tracing
//
// Spans are created for:
//   - folder ingestion runs (ingest.folder)
//   - Google API calls (google.<service>.<operation>)
//   - MCP tool invocations (tool.<name>)
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: driveingest)
//
// A disabled provider hands out a zero-value *Metrics whose methods are no-ops,
// so callers never need to nil-check.
package instrumentation
