// Package shell runs translated commands through the system shell and
// flags the ones that deserve an extra confirmation.
package shell
