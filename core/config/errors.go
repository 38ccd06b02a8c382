package config

import "errors"

var (
	ErrNilConfig     = errors.New("config: nil destination")
	ErrParsingConfig = errors.New("config: failed to parse environment")
)
