// Package history keeps a bounded, in-memory record of executed commands
// and runs the periodic memory maintenance loop.
package history
