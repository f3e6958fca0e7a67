package coltype

import (
	"database/sql/driver"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
)

// decimalWidthBytes is the fixed on-wire width of a DECIMAL value: a
// 16-byte two's-complement scaled integer, wide enough for the full
// precision range this system accepts (up to 38 digits).
const decimalWidthBytes = 16

// Dec128 is a fixed-point decimal represented as an unscaled 128-bit
// two's-complement integer plus a scale (digits after the point).
type Dec128 struct {
	Unscaled big.Int
	Scale    int
}

// ParseDec128 parses a base-10 literal like "123.45" or "-7" into a Dec128
// at the given scale, rounding is not performed: the literal must not carry
// more fractional digits than scale allows.
func ParseDec128(s string, scale int) (Dec128, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	intPart, fracPart, hasDot := strings.Cut(s, ".")
	if len(fracPart) > scale {
		return Dec128{}, errors.Newf("coltype: decimal literal %q has more than %d fractional digits", s, scale)
	}
	if !hasDot {
		fracPart = ""
	}
	fracPart = fracPart + strings.Repeat("0", scale-len(fracPart))

	digits := intPart + fracPart
	if digits == "" {
		digits = "0"
	}
	u, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Dec128{}, errors.Newf("coltype: invalid decimal literal %q", s)
	}
	if neg {
		u.Neg(u)
	}
	return Dec128{Unscaled: *u, Scale: scale}, nil
}

// String renders the decimal back to its base-10 textual form.
func (d Dec128) String() string {
	neg := d.Unscaled.Sign() < 0
	abs := new(big.Int).Abs(&d.Unscaled)
	digits := abs.String()
	for len(digits) <= d.Scale {
		digits = "0" + digits
	}
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	if d.Scale == 0 {
		sb.WriteString(digits)
		return sb.String()
	}
	cut := len(digits) - d.Scale
	sb.WriteString(digits[:cut])
	sb.WriteByte('.')
	sb.WriteString(digits[cut:])
	return sb.String()
}

// Value implements driver.Valuer so a Dec128 can be passed directly as a
// database/sql bind argument (e.g. by the tdengine sink connector)
// instead of requiring callers to pre-convert it to a string themselves.
func (d Dec128) Value() (driver.Value, error) {
	return d.String(), nil
}

// Bytes encodes the decimal as a 16-byte two's-complement big-endian
// integer, the fixed-width on-wire representation stored in table blocks.
func (d Dec128) Bytes() ([decimalWidthBytes]byte, error) {
	var out [decimalWidthBytes]byte
	b := d.Unscaled.Bytes() // big-endian magnitude, no sign
	if len(b) > decimalWidthBytes {
		return out, errors.Newf("coltype: decimal value overflows %d-byte storage", decimalWidthBytes)
	}
	if d.Unscaled.Sign() >= 0 {
		copy(out[decimalWidthBytes-len(b):], b)
		return out, nil
	}
	// Two's complement: out = 2^128 + value.
	mod := new(big.Int).Lsh(big.NewInt(1), decimalWidthBytes*8)
	tc := new(big.Int).Add(mod, &d.Unscaled)
	tb := tc.Bytes()
	if len(tb) > decimalWidthBytes {
		return out, errors.Newf("coltype: decimal value overflows %d-byte storage", decimalWidthBytes)
	}
	copy(out[decimalWidthBytes-len(tb):], tb)
	return out, nil
}

// DecodeDec128 decodes a 16-byte two's-complement big-endian integer back
// into a Dec128 at the given scale.
func DecodeDec128(b []byte, scale int) (Dec128, error) {
	if len(b) != decimalWidthBytes {
		return Dec128{}, errors.Newf("coltype: decimal storage must be %d bytes, got %d", decimalWidthBytes, len(b))
	}
	u := new(big.Int).SetBytes(b)
	// If the high bit is set, this is a negative two's-complement value.
	if b[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), decimalWidthBytes*8)
		u.Sub(u, mod)
	}
	return Dec128{Unscaled: *u, Scale: scale}, nil
}
