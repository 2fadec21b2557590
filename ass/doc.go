// Package ass parses Advanced SubStation Alpha (ASS) and SubStation Alpha
// (SSA) subtitle scripts.
//
// Parse turns a script held in memory into a Track: script info, styles,
// dialogue events and embedded fonts. Track.ActiveAt selects the events
// visible at a timestamp and Track.ParseDialogue resolves their override
// tags into styled runs, hard line breaks and positioning.
//
// Colors use the libass packing R<<24 | G<<16 | B<<8 | (255 - alpha), so
// the low byte is the transparency written in the script.
package ass
