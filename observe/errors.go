package observe

import "errors"

// Errors returned by Config.Validate.
var (
	ErrMissingServiceName     = errors.New("observe: missing service name")
	ErrInvalidSamplePct       = errors.New("observe: sample pct out of range [0, 1]")
	ErrInvalidTracingExporter = errors.New("observe: unknown tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: unknown metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: unknown log level")
)
