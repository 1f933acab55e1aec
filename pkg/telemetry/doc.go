// Package telemetry provides observability for envlane workflows.
//
// It bundles structured logging (zerolog), distributed tracing
// (OpenTelemetry) and Prometheus metrics behind small wrappers so the
// rest of the codebase stays decoupled from the underlying libraries.
// A workflow execution produces one root span with a child span per
// step; the trace ID of a failed run is persisted with the
// environment's failure context so it can be correlated later.
package telemetry
