package app

import "errors"

var (
	ErrAlreadyStarted = errors.New("app: already started")
	ErrShutdown       = errors.New("app: shut down")
)
