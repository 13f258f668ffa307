package taskqueue

import "errors"

var (
	// ErrQueueFull is returned when Enqueue cannot get a slot within
	// Config.EnqueueTimeout.
	ErrQueueFull = errors.New("taskqueue: queue is full")

	// ErrQueueClosed is returned by Enqueue and Start once Stop has begun.
	ErrQueueClosed = errors.New("taskqueue: queue is closed")

	// ErrAlreadyStarted is returned by a second call to Start.
	ErrAlreadyStarted = errors.New("taskqueue: already started")

	// ErrNilTask is returned when Enqueue is given a nil TaskFunc.
	ErrNilTask = errors.New("taskqueue: task func is nil")
)

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return "taskqueue: task panicked"
}
