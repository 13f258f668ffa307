// Package observe provides the telemetry primitives shared by every
// gptshell component: named counters, gauges and histograms backed by
// OpenTelemetry, a JSON line logger with secret redaction, span helpers,
// and HTTP instrumentation.
//
// Components accept the Metrics, Logger and Tracer interfaces; NoopMetrics,
// NopLogger and NoopTracer stand in when telemetry is not wanted.
package observe
