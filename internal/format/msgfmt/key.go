package msgfmt

import (
	"encoding/binary"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/pool"
)

// ErrNotSinglePlaceholder is returned at construction time when an integer
// key serializer is paired with a pattern that is not exactly one
// placeholder token, matching KeyGenerator's constructor check.
var ErrNotSinglePlaceholder = errors.New("msgfmt: integer key_serializer requires a pattern that is a single placeholder")

// Serializer selects how KeyGenerator renders a resolved value, matching
// KeyGenerator::SerializerType.
type Serializer string

const (
	SerializerStringUTF8 Serializer = "string-utf8"
	SerializerInt8       Serializer = "int8"
	SerializerUint8      Serializer = "uint8"
	SerializerInt16      Serializer = "int16"
	SerializerUint16     Serializer = "uint16"
	SerializerInt32      Serializer = "int32"
	SerializerUint32     Serializer = "uint32"
	SerializerInt64      Serializer = "int64"
	SerializerUint64     Serializer = "uint64"
)

// KeyGenerator renders a message key (or topic) from a pattern, either as
// UTF-8 text (the pattern may combine literal text and any number of
// placeholders) or as a big-endian fixed-width integer (the pattern must
// then be exactly one placeholder, checked at construction).
type KeyGenerator struct {
	pattern           *PatternGenerator
	serializer        Serializer
	singlePlaceholder string
}

// NewKeyGenerator builds a KeyGenerator, validating the single-placeholder
// requirement for integer serializers up front, matching the original's
// constructor-time throw rather than a format-time failure.
func NewKeyGenerator(patternStr string, serializer Serializer, schema []coltype.Config) (*KeyGenerator, error) {
	toks, err := parsePattern(patternStr)
	if err != nil {
		return nil, err
	}

	kg := &KeyGenerator{serializer: serializer}

	if serializer != SerializerStringUTF8 {
		if len(toks) != 1 || toks[0].kind != tokenPlaceholder {
			return nil, errors.Wrapf(ErrNotSinglePlaceholder, "pattern %q", patternStr)
		}
		kg.singlePlaceholder = toks[0].text
	}

	pg, err := NewPatternGenerator(patternStr, schema)
	if err != nil {
		return nil, err
	}
	kg.pattern = pg
	return kg, nil
}

// Generate renders the key for one row, returning either UTF-8 text bytes
// or a big-endian fixed-width integer encoding.
func (kg *KeyGenerator) Generate(tb *pool.TableBlock, rowIndex int) ([]byte, error) {
	if kg.serializer == SerializerStringUTF8 {
		s, err := kg.pattern.Generate(tb, rowIndex)
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}

	s, err := kg.pattern.valueAsString(kg.singlePlaceholder, tb, rowIndex)
	if err != nil {
		return nil, err
	}

	return serializeInteger(kg.serializer, s)
}

func serializeInteger(serializer Serializer, valueStr string) ([]byte, error) {
	switch serializer {
	case SerializerInt8, SerializerInt16, SerializerInt32, SerializerInt64:
		v, err := strconv.ParseInt(valueStr, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "msgfmt: parsing key value %q for %s serializer", valueStr, serializer)
		}
		return bigEndianInt(serializer, v), nil
	case SerializerUint8, SerializerUint16, SerializerUint32, SerializerUint64:
		v, err := strconv.ParseUint(valueStr, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "msgfmt: parsing key value %q for %s serializer", valueStr, serializer)
		}
		return bigEndianUint(serializer, v), nil
	default:
		return nil, errors.Newf("msgfmt: unsupported key serializer %q", serializer)
	}
}

func bigEndianInt(serializer Serializer, v int64) []byte {
	switch serializer {
	case SerializerInt8:
		return []byte{byte(int8(v))}
	case SerializerInt16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(int16(v)))
		return b
	case SerializerInt32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(int32(v)))
		return b
	default: // SerializerInt64
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, uint64(v))
		return b
	}
}

func bigEndianUint(serializer Serializer, v uint64) []byte {
	switch serializer {
	case SerializerUint8:
		return []byte{byte(v)}
	case SerializerUint16:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(v))
		return b
	case SerializerUint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(v))
		return b
	default: // SerializerUint64
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, v)
		return b
	}
}
