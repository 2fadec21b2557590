package ass

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// ParseTime parses an H:MM:SS.cc timestamp into milliseconds. The
// fractional part counts centiseconds regardless of its width, as libass does.
func ParseTime(s string) (int64, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	secPart, csPart, _ := strings.Cut(parts[2], ".")
	sec, err := strconv.Atoi(secPart)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	cs := 0
	if csPart != "" {
		cs, err = strconv.Atoi(csPart)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
	}
	return ((int64(h)*60+int64(m))*60+int64(sec))*1000 + int64(cs)*10, nil
}

// FormatTime formats milliseconds as H:MM:SS.cc.
func FormatTime(ms int64) string {
	cs := ms / 10
	return fmt.Sprintf("%d:%02d:%02d.%02d", cs/360000, cs/6000%60, cs/100%60, cs%100)
}

// ParseColor parses a style color (&HAABBGGRR, &HBBGGRR&, or decimal) into
// the R<<24 | G<<16 | B<<8 | (255 - alpha) packing.
func ParseColor(s string) uint32 {
	return bits.ReverseBytes32(parseColorValue(s))
}

// parseColorValue returns the raw AABBGGRR value.
func parseColorValue(s string) uint32 {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "&")
	base := 10
	if len(s) > 0 && (s[0] == 'H' || s[0] == 'h') {
		s = s[1:]
		base = 16
	}
	end := 0
	for end < len(s) && isDigit(s[end], base) {
		end++
	}
	if end == 0 && len(s) > 0 && s[0] == '-' && base == 10 {
		// Negative decimal colors wrap like the C parser does.
		v, err := strconv.ParseInt(strings.TrimRight(s, "&"), 10, 64)
		if err == nil {
			return uint32(v) //nolint:gosec // two's complement wrap is intended
		}
		return 0
	}
	v, err := strconv.ParseUint(s[:end], base, 64)
	if err != nil {
		return 0
	}
	return uint32(v) //nolint:gosec // colors wider than 32 bits are truncated
}

// parseColorTag parses an override color (&HBBGGRR&) into RGB bits of the
// packed color with a zero alpha byte.
func parseColorTag(s string) uint32 {
	return bits.ReverseBytes32(parseColorValue(s)) &^ 0xFF
}

// parseAlphaTag parses an override alpha (&HAA&).
func parseAlphaTag(s string) uint32 {
	return parseColorValue(s) & 0xFF
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16 && c >= 'a' && c <= 'f':
		return true
	case base == 16 && c >= 'A' && c <= 'F':
		return true
	}
	return false
}

// parseBool parses a style flag: -1 and 1 are set, as are numeric weights
// of 700 and above.
func parseBool(s string) bool {
	v, ok := parseFloatPrefix(s)
	if !ok {
		return false
	}
	return v == -1 || v == 1 || v >= 700
}

// parseFloatPrefix parses the longest numeric prefix of s, like strtod.
func parseFloatPrefix(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	end := 0
	seenDigit, seenDot := false, false
scan:
	for end < len(s) {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '.' && !seenDot:
			seenDot = true
		case (c == '-' || c == '+') && end == 0:
		default:
			break scan
		}
		end++
	}
	if !seenDigit {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseInt(s string) int {
	v, _ := parseFloatPrefix(s)
	return int(v)
}

func parseFloat(s string) float64 {
	v, _ := parseFloatPrefix(s)
	return v
}

// legacyAlignment maps SSA alignment (1-3 bottom, 5-7 top, 9-11 middle)
// to numpad alignment.
func legacyAlignment(v int) int {
	h := v & 3
	if h == 0 {
		h = 2
	}
	switch {
	case v&4 != 0:
		return h + 6
	case v&8 != 0:
		return h + 3
	default:
		return h
	}
}

// clampAlignment keeps numpad alignment within 1..9.
func clampAlignment(v int) int {
	if v < 1 || v > 9 {
		return 2
	}
	return v
}
