// Package taskqueue runs fire-and-forget background work on a fixed pool of
// workers fed by a bounded priority queue.
//
// Lower priority values run first; equal priorities run in arrival order.
// A task's error or panic is recorded and logged but never stops its
// worker. Enqueue waits a bounded time for room and then fails with
// ErrQueueFull. Nothing is persisted: queued tasks are dropped on Stop.
package taskqueue
