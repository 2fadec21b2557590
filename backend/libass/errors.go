package libass

import "errors"

// Package errors for the libass backend.
var (
	// ErrLibraryInit is returned when ass_library_init fails.
	ErrLibraryInit = errors.New("libass: library init failed")

	// ErrRendererInit is returned when ass_renderer_init fails.
	ErrRendererInit = errors.New("libass: renderer init failed")

	// ErrReadTrack is returned when ass_read_memory yields no track.
	ErrReadTrack = errors.New("libass: cannot read track")

	// ErrClosed is returned when a closed context is used.
	ErrClosed = errors.New("libass: closed")
)
