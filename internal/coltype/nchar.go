package coltype

import (
	"unicode/utf16"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// EncodeNChar converts a UTF-8 string to its internal UTF-16 (little-endian)
// representation, truncating to maxUnits code units if the string is longer
// and maxUnits is positive. Mirrors the storage format the teacher's schema
// docs call NCHAR: fixed-capacity UTF-16 rather than UTF-8 bytes, so that a
// declared "nchar(n)" column reserves room for exactly n code points of
// typical (non-surrogate-pair) text.
func EncodeNChar(s string, maxUnits int) ([]byte, error) {
	if !utf8.ValidString(s) {
		return nil, errors.Newf("coltype: NCHAR value is not valid UTF-8")
	}
	units := utf16.Encode([]rune(s))
	if maxUnits > 0 && len(units) > maxUnits {
		units = units[:maxUnits]
	}
	out := make([]byte, len(units)*2)
	for i, u := range units {
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out, nil
}

// DecodeNChar converts a stored UTF-16LE byte slice back to a UTF-8 string.
func DecodeNChar(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", errors.Newf("coltype: NCHAR storage has odd byte length %d", len(b))
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = uint16(b[2*i]) | uint16(b[2*i+1])<<8
	}
	return string(utf16.Decode(units)), nil
}
