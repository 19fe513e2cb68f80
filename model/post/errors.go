package post

import "errors"

var (
	// ErrInvalidSchema is used when the schema cannot be read by prosemirror.
	ErrInvalidSchema = errors.New("Invalid schema for prosemirror")
	// ErrInvalidContent is used when a stored value cannot be read as a post
	// document.
	ErrInvalidContent = errors.New("Invalid content, not a post document")
	// ErrNoSteps is used when steps are expected, but there are none.
	ErrNoSteps = errors.New("No steps")
	// ErrInvalidSteps is used when prosemirror can't instantiate the steps.
	ErrInvalidSteps = errors.New("Invalid steps")
	// ErrCannotApply is used when trying to apply some steps, but it fails
	// because of a version conflict. The client can reload and retry.
	ErrCannotApply = errors.New("Cannot apply the steps")
	// ErrInvalidCursor is used when an insertion position is out of the
	// document bounds.
	ErrInvalidCursor = errors.New("The cursor is out of bounds")
)
