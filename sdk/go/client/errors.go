package client

import "errors"

var (
	ErrClientClosed     = errors.New("client is closed")
	ErrNotConnected     = errors.New("client is not connected")
	ErrAlreadyConnected = errors.New("client is already connected")
	ErrInvalidConfig    = errors.New("invalid client configuration")
	ErrInvalidMessage   = errors.New("invalid message")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrServerFull       = errors.New("inspector has no free client slots")
	ErrStreamClosed     = errors.New("inspector closed the stream")
)
