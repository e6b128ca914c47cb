package client

import "errors"

var (
	// ErrClientClosed is returned by calls made after Close.
	ErrClientClosed = errors.New("client: closed")

	// ErrNotConnected reports that a session has no open connection.
	ErrNotConnected = errors.New("client: not connected")

	// ErrNoSession reports that the requested role has no session.
	ErrNoSession = errors.New("client: no such session")

	// ErrUnhandledFrame is returned by Dispatch for a frame type it does
	// not know. Decode never produces one.
	ErrUnhandledFrame = errors.New("client: unhandled frame")
)
