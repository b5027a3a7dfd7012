package display

import "errors"

var (
	// ErrNoRenderable indicates a mode produced no usable frame for the
	// current rotation slot.
	ErrNoRenderable = errors.New("no renderable content")

	// ErrUnknownMode indicates a schedule entry or override request named a
	// mode id with no registered provider.
	ErrUnknownMode = errors.New("unknown display mode")
)
