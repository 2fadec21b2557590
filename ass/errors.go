package ass

import "errors"

// Sentinel errors for the ass package.
var (
	// ErrEmptyScript is returned when the input holds no text.
	ErrEmptyScript = errors.New("ass: empty script")

	// ErrUnknownTrackType is returned when the input declares neither a
	// ScriptType nor a styles section.
	ErrUnknownTrackType = errors.New("ass: unknown track type")

	// ErrInvalidTime is returned for a malformed H:MM:SS.cc timestamp.
	ErrInvalidTime = errors.New("ass: invalid timestamp")

	// ErrInvalidFontData is returned for an embedded font whose encoded
	// length cannot be decoded.
	ErrInvalidFontData = errors.New("ass: invalid embedded font data")
)
