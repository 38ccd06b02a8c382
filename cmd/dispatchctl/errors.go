package main

import "errors"

var (
	ErrInvalidJSON   = errors.New("invalid JSON value")
	ErrInvalidFlag   = errors.New("invalid flag value")
	ErrChannelFailed = errors.New("channel failed")
)
