package ggass

import "errors"

// Status codes reported across the C boundary. Code 3 is shared by track
// parse failures and negative timestamps, as each operation reports only one
// of them.
const (
	CodeOK              = 0
	CodeNilHandle       = 1
	CodeInvalidArgument = 2
	CodeParseFailure    = 3
	CodeNegativeTime    = 3
	CodeNoTrack         = 4
	CodeAllocation      = 5

	// CodeUnknown is returned by Code for errors that carry no status code.
	CodeUnknown = -1
)

// Error is an engine error carrying a stable status code.
type Error struct {
	code int
	msg  string
}

func (e *Error) Error() string { return e.msg }

// Code returns the status code of the error.
func (e *Error) Code() int { return e.code }

// Engine errors. Compare with errors.Is; wrapped causes stay reachable.
var (
	// ErrNilEngine is returned for a nil or destroyed engine.
	ErrNilEngine = &Error{CodeNilHandle, "ggass: nil engine"}

	// ErrInvalidFrameSize is returned when width or height is not positive.
	ErrInvalidFrameSize = &Error{CodeInvalidArgument, "ggass: invalid frame size"}

	// ErrInvalidTrack is returned for empty track data.
	ErrInvalidTrack = &Error{CodeInvalidArgument, "ggass: empty track data"}

	// ErrNilFrame is returned when RenderAt gets no output frame.
	ErrNilFrame = &Error{CodeInvalidArgument, "ggass: nil output frame"}

	// ErrInvalidFontData is returned by AddFont for empty font data.
	ErrInvalidFontData = &Error{CodeInvalidArgument, "ggass: empty font data"}

	// ErrTrackParse is returned when the backend cannot parse the track.
	ErrTrackParse = &Error{CodeParseFailure, "ggass: track parse failed"}

	// ErrFont is returned when the backend rejects a font or font configuration.
	ErrFont = &Error{CodeParseFailure, "ggass: font configuration failed"}

	// ErrNegativeTime is returned by RenderAt for timestamps below zero.
	ErrNegativeTime = &Error{CodeNegativeTime, "ggass: negative timestamp"}

	// ErrNoTrack is returned by RenderAt when no track is loaded.
	ErrNoTrack = &Error{CodeNoTrack, "ggass: no track loaded"}

	// ErrAllocation is returned when frame buffers cannot be allocated.
	ErrAllocation = &Error{CodeAllocation, "ggass: frame allocation failed"}

	// ErrBackendUnavailable is returned by Create when no backend can be used.
	ErrBackendUnavailable = &Error{CodeUnknown, "ggass: backend not available"}

	// ErrLibraryInit is returned by Create when the library context fails.
	ErrLibraryInit = &Error{CodeUnknown, "ggass: library init failed"}

	// ErrRendererInit is returned by Create when the renderer context fails.
	ErrRendererInit = &Error{CodeUnknown, "ggass: renderer init failed"}
)

// Code returns the status code carried by err: 0 for nil, the code of the
// first *Error in the chain, or CodeUnknown.
func Code(err error) int {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return CodeUnknown
}
