package coltype

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/cockroachdb/errors"
)

// ErrUnsupportedSQLType is raised by formatters (not by this package) for
// the two types the original SQL formatter refuses to emit; named here so
// every package that needs it shares one sentinel.
var ErrUnsupportedSQLType = errors.New("coltype: type has no SQL literal representation")

// Handler is the per-type function-pointer table this system dispatches
// through once per column, rather than re-deciding the type on every row.
// It plays the same role as the teacher's FieldCoder, generalized from a
// single Encode method to the four-direction contract spec component A
// requires (to/from fixed or variable storage, plus a display form) because
// a generator/formatter round-trips values in both directions, while the
// teacher's ts package only ever writes forward into an append log.
type Handler struct {
	Tag Tag

	// ToFixed encodes value into a fixed-width buffer already sized to
	// Tag.FixedSizeBytes(). Nil for variable-length types.
	ToFixed func(buf []byte, value any) error

	// ToVar encodes value into a freshly allocated variable-length byte
	// slice, byte-truncating at maxLength rather than erroring when the
	// encoded value is longer. Nil for fixed-length types.
	ToVar func(maxLength int, value any) ([]byte, error)

	// FromFixed decodes a fixed-width buffer back into a value. Nil for
	// variable-length types.
	FromFixed func(buf []byte) (any, error)

	// FromVar decodes a variable-length buffer back into a value. Nil for
	// fixed-length types.
	FromVar func(buf []byte) (any, error)

	// ToString renders a decoded value as display/debug text (used by the
	// SQL and message formatters' cell and tag rendering), independent of any
	// wire-format encoding a formatter performs.
	ToString func(value any) (string, error)
}

// baseHandlers holds the stateless, shared handler for every type except
// Decimal and is filled once in init; Decimal handlers close over a scale,
// so HandlerFor builds one per call instead.
var baseHandlers = map[Tag]Handler{}

func init() {
	baseHandlers[Bool] = boolHandler()
	baseHandlers[TinyInt] = intHandler(Int8Width, true)
	baseHandlers[TinyIntUnsigned] = intHandler(Int8Width, false)
	baseHandlers[SmallInt] = intHandler(Int16Width, true)
	baseHandlers[SmallIntUnsigned] = intHandler(Int16Width, false)
	baseHandlers[Int] = intHandler(Int32Width, true)
	baseHandlers[IntUnsigned] = intHandler(Int32Width, false)
	baseHandlers[BigInt] = intHandler(Int64Width, true)
	baseHandlers[BigIntUnsigned] = intHandler(Int64Width, false)
	baseHandlers[Float] = floatHandler()
	baseHandlers[Double] = doubleHandler()
	baseHandlers[Timestamp] = timestampHandler()
	baseHandlers[NChar] = ncharHandler()
	baseHandlers[VarChar] = varcharHandler()
	baseHandlers[Binary] = binaryHandler()
	baseHandlers[VarBinary] = varbinaryHandler()
	baseHandlers[JSON] = jsonHandler()
	baseHandlers[Geometry] = geometryHandler()
}

// Int width constants, exported so generators can size scratch buffers
// without importing encoding/binary themselves.
const (
	Int8Width  = 1
	Int16Width = 2
	Int32Width = 4
	Int64Width = 8
)

// HandlerFor builds the Handler for a fully-resolved column Config. Decimal
// handlers are constructed per-call because they close over scale; every
// other tag returns the shared stateless handler from baseHandlers.
func HandlerFor(cfg Config) (Handler, error) {
	if cfg.Tag == Decimal {
		return decimalHandler(cfg.Scale), nil
	}
	h, ok := baseHandlers[cfg.Tag]
	if !ok {
		return Handler{}, errors.Newf("coltype: no handler registered for %s", cfg.Tag)
	}
	return h, nil
}

func boolHandler() Handler {
	return Handler{
		Tag: Bool,
		ToFixed: func(buf []byte, value any) error {
			b, err := asBool(value)
			if err != nil {
				return err
			}
			if b {
				buf[0] = 1
			} else {
				buf[0] = 0
			}
			return nil
		},
		FromFixed: func(buf []byte) (any, error) { return buf[0] != 0, nil },
		ToString: func(value any) (string, error) {
			b, err := asBool(value)
			if err != nil {
				return "", err
			}
			return strconv.FormatBool(b), nil
		},
	}
}

func asBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	default:
		return false, errors.Newf("coltype: expected bool value, got %#v", value)
	}
}

// intHandler builds the handler for a fixed-width integer type. signed
// controls whether the decoded Go value is int64 or uint64 and whether
// bounds checking applies signed or unsigned limits.
func intHandler(width int, signed bool) Handler {
	tag := tagForIntWidth(width, signed)
	return Handler{
		Tag: tag,
		ToFixed: func(buf []byte, value any) error {
			if signed {
				v, err := asInt64(value)
				if err != nil {
					return err
				}
				if err := checkSignedRange(v, width); err != nil {
					return err
				}
				putIntLE(buf, uint64(v), width)
				return nil
			}
			v, err := asUint64(value)
			if err != nil {
				return err
			}
			if err := checkUnsignedRange(v, width); err != nil {
				return err
			}
			putIntLE(buf, v, width)
			return nil
		},
		FromFixed: func(buf []byte) (any, error) {
			u := getIntLE(buf, width)
			if signed {
				return signExtend(u, width), nil
			}
			return u, nil
		},
		ToString: func(value any) (string, error) {
			if signed {
				v, err := asInt64(value)
				if err != nil {
					return "", err
				}
				return strconv.FormatInt(v, 10), nil
			}
			v, err := asUint64(value)
			if err != nil {
				return "", err
			}
			return strconv.FormatUint(v, 10), nil
		},
	}
}

func tagForIntWidth(width int, signed bool) Tag {
	switch {
	case width == Int8Width && signed:
		return TinyInt
	case width == Int8Width:
		return TinyIntUnsigned
	case width == Int16Width && signed:
		return SmallInt
	case width == Int16Width:
		return SmallIntUnsigned
	case width == Int32Width && signed:
		return Int
	case width == Int32Width:
		return IntUnsigned
	case width == Int64Width && signed:
		return BigInt
	default:
		return BigIntUnsigned
	}
}

func putIntLE(buf []byte, v uint64, width int) {
	switch width {
	case Int8Width:
		buf[0] = byte(v)
	case Int16Width:
		binary.LittleEndian.PutUint16(buf, uint16(v))
	case Int32Width:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	case Int64Width:
		binary.LittleEndian.PutUint64(buf, v)
	}
}

func getIntLE(buf []byte, width int) uint64 {
	switch width {
	case Int8Width:
		return uint64(buf[0])
	case Int16Width:
		return uint64(binary.LittleEndian.Uint16(buf))
	case Int32Width:
		return uint64(binary.LittleEndian.Uint32(buf))
	default:
		return binary.LittleEndian.Uint64(buf)
	}
}

func signExtend(u uint64, width int) int64 {
	switch width {
	case Int8Width:
		return int64(int8(u))
	case Int16Width:
		return int64(int16(u))
	case Int32Width:
		return int64(int32(u))
	default:
		return int64(u)
	}
}

func checkSignedRange(v int64, width int) error {
	var lo, hi int64
	switch width {
	case Int8Width:
		lo, hi = math.MinInt8, math.MaxInt8
	case Int16Width:
		lo, hi = math.MinInt16, math.MaxInt16
	case Int32Width:
		lo, hi = math.MinInt32, math.MaxInt32
	default:
		return nil
	}
	if v < lo || v > hi {
		return errors.Newf("coltype: value %d out of range [%d, %d]", v, lo, hi)
	}
	return nil
}

func checkUnsignedRange(v uint64, width int) error {
	var hi uint64
	switch width {
	case Int8Width:
		hi = math.MaxUint8
	case Int16Width:
		hi = math.MaxUint16
	case Int32Width:
		hi = math.MaxUint32
	default:
		return nil
	}
	if v > hi {
		return errors.Newf("coltype: value %d out of range [0, %d]", v, hi)
	}
	return nil
}

func asInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	default:
		return 0, errors.Newf("coltype: expected integer value, got %#v", value)
	}
}

func asUint64(value any) (uint64, error) {
	switch v := value.(type) {
	case uint64:
		return v, nil
	case int64:
		if v < 0 {
			return 0, errors.Newf("coltype: negative value %d for unsigned column", v)
		}
		return uint64(v), nil
	case int:
		if v < 0 {
			return 0, errors.Newf("coltype: negative value %d for unsigned column", v)
		}
		return uint64(v), nil
	default:
		return 0, errors.Newf("coltype: expected unsigned integer value, got %#v", value)
	}
}

func floatHandler() Handler {
	return Handler{
		Tag: Float,
		ToFixed: func(buf []byte, value any) error {
			f, err := asFloat64(value)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(f)))
			return nil
		},
		FromFixed: func(buf []byte) (any, error) {
			return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))), nil
		},
		ToString: func(value any) (string, error) {
			f, err := asFloat64(value)
			if err != nil {
				return "", err
			}
			return strconv.FormatFloat(f, 'g', -1, 32), nil
		},
	}
}

func doubleHandler() Handler {
	return Handler{
		Tag: Double,
		ToFixed: func(buf []byte, value any) error {
			f, err := asFloat64(value)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint64(buf, math.Float64bits(f))
			return nil
		},
		FromFixed: func(buf []byte) (any, error) {
			return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
		},
		ToString: func(value any) (string, error) {
			f, err := asFloat64(value)
			if err != nil {
				return "", err
			}
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		},
	}
}

func asFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	default:
		return 0, errors.Newf("coltype: expected float value, got %#v", value)
	}
}

func timestampHandler() Handler {
	return Handler{
		Tag: Timestamp,
		ToFixed: func(buf []byte, value any) error {
			v, err := asInt64(value)
			if err != nil {
				return err
			}
			binary.LittleEndian.PutUint64(buf, uint64(v))
			return nil
		},
		FromFixed: func(buf []byte) (any, error) {
			return int64(binary.LittleEndian.Uint64(buf)), nil
		},
		ToString: func(value any) (string, error) {
			v, err := asInt64(value)
			if err != nil {
				return "", err
			}
			return strconv.FormatInt(v, 10), nil
		},
	}
}

func decimalHandler(scale int) Handler {
	return Handler{
		Tag: Decimal,
		ToFixed: func(buf []byte, value any) error {
			d, err := asDecimal(value, scale)
			if err != nil {
				return err
			}
			enc, err := d.Bytes()
			if err != nil {
				return err
			}
			copy(buf, enc[:])
			return nil
		},
		FromFixed: func(buf []byte) (any, error) {
			return DecodeDec128(buf, scale)
		},
		ToString: func(value any) (string, error) {
			d, err := asDecimal(value, scale)
			if err != nil {
				return "", err
			}
			return d.String(), nil
		},
	}
}

func asDecimal(value any, scale int) (Dec128, error) {
	switch v := value.(type) {
	case Dec128:
		return v, nil
	case string:
		return ParseDec128(v, scale)
	default:
		return Dec128{}, errors.Newf("coltype: expected decimal value, got %#v", value)
	}
}

func ncharHandler() Handler {
	return Handler{
		Tag: NChar,
		ToVar: func(maxLength int, value any) ([]byte, error) {
			s, err := asString(value)
			if err != nil {
				return nil, err
			}
			return EncodeNChar(s, maxLength)
		},
		FromVar: func(buf []byte) (any, error) { return DecodeNChar(buf) },
		ToString: func(value any) (string, error) {
			return asString(value)
		},
	}
}

func varcharHandler() Handler {
	return Handler{
		Tag: VarChar,
		ToVar: func(maxLength int, value any) ([]byte, error) {
			s, err := asString(value)
			if err != nil {
				return nil, err
			}
			if maxLength > 0 && len(s) > maxLength {
				s = s[:maxLength]
			}
			return []byte(s), nil
		},
		FromVar: func(buf []byte) (any, error) { return string(buf), nil },
		ToString: func(value any) (string, error) {
			return asString(value)
		},
	}
}

func binaryHandler() Handler {
	return Handler{
		Tag: Binary,
		ToVar: func(maxLength int, value any) ([]byte, error) {
			b, err := asBytes(value)
			if err != nil {
				return nil, err
			}
			if maxLength > 0 && len(b) > maxLength {
				b = b[:maxLength]
			}
			return b, nil
		},
		FromVar: func(buf []byte) (any, error) { return append([]byte(nil), buf...), nil },
		ToString: func(value any) (string, error) {
			b, err := asBytes(value)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%x", b), nil
		},
	}
}

func varbinaryHandler() Handler {
	h := binaryHandler()
	h.Tag = VarBinary
	return h
}

func jsonHandler() Handler {
	return Handler{
		Tag: JSON,
		ToVar: func(maxLength int, value any) ([]byte, error) {
			s, err := asString(value)
			if err != nil {
				return nil, err
			}
			if maxLength > 0 && len(s) > maxLength {
				s = s[:maxLength]
			}
			return []byte(s), nil
		},
		FromVar: func(buf []byte) (any, error) { return string(buf), nil },
		ToString: func(value any) (string, error) {
			return asString(value)
		},
	}
}

func geometryHandler() Handler {
	return Handler{
		Tag: Geometry,
		ToVar: func(maxLength int, value any) ([]byte, error) {
			s, err := asString(value)
			if err != nil {
				return nil, err
			}
			if maxLength > 0 && len(s) > maxLength {
				s = s[:maxLength]
			}
			return []byte(s), nil
		},
		FromVar: func(buf []byte) (any, error) { return string(buf), nil },
		ToString: func(value any) (string, error) {
			return asString(value)
		},
	}
}

func asString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", errors.Newf("coltype: expected string value, got %#v", value)
	}
}

func asBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.Newf("coltype: expected byte-sequence value, got %#v", value)
	}
}
