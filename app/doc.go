// Package app assembles gptshell from its configuration.
//
// New builds every component: the translation pipeline, its cache and
// breaker, the task queue, command history, health checks and the HTTP
// API. Start launches the worker pool and the periodic loops (cache
// sweep, health monitor, history GC). Shutdown stops the queue first,
// then the loops, then flushes telemetry.
package app
