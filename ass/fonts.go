package ass

import "strings"

// DecodeFont decodes an embedded font from the [Fonts] section encoding:
// every 4 characters (each offset by 33) carry 3 bytes; a trailing group of
// 2 or 3 characters carries 1 or 2 bytes.
func DecodeFont(encoded string) ([]byte, error) {
	encoded = strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, encoded)

	src := []byte(encoded)
	if len(src)%4 == 1 {
		return nil, ErrInvalidFontData
	}

	dst := make([]byte, 0, len(src)/4*3+2)
	for len(src) > 0 {
		n := min(4, len(src))
		var value uint32
		for i := 0; i < n; i++ {
			value |= uint32((src[i]-33)&63) << (6 * (3 - i))
		}
		dst = append(dst, byte(value>>16))
		if n >= 3 {
			dst = append(dst, byte(value>>8))
		}
		if n >= 4 {
			dst = append(dst, byte(value))
		}
		src = src[n:]
	}
	return dst, nil
}
