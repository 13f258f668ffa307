package config

import "errors"

var (
	ErrInvalid        = errors.New("config: invalid")
	ErrUnknownProvider = errors.New("config: unknown llm provider")
)
