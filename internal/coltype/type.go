// Package coltype implements the closed column-type system used to describe
// and convert the values a table block can hold: the set of scalar types a
// schema column may declare, and the fixed/variable classification that
// drives how the memory pool lays out storage for it.
//
// The conversion side (value -> bytes, bytes -> value) lives in converter.go
// and follows the same coder-table approach as the teacher package's
// FieldCoder: one small struct per type, selected once at column-handler
// construction time rather than dispatched dynamically on every row.
package coltype

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Tag is the closed set of column value types this system understands.
type Tag int

const (
	Bool Tag = iota + 1
	TinyInt
	TinyIntUnsigned
	SmallInt
	SmallIntUnsigned
	Int
	IntUnsigned
	BigInt
	BigIntUnsigned
	Float
	Double
	Decimal
	NChar
	VarChar
	Binary
	JSON
	VarBinary
	Geometry
	Timestamp
)

func (t Tag) String() string {
	switch t {
	case Bool:
		return "BOOL"
	case TinyInt:
		return "TINYINT"
	case TinyIntUnsigned:
		return "TINYINT UNSIGNED"
	case SmallInt:
		return "SMALLINT"
	case SmallIntUnsigned:
		return "SMALLINT UNSIGNED"
	case Int:
		return "INT"
	case IntUnsigned:
		return "INT UNSIGNED"
	case BigInt:
		return "BIGINT"
	case BigIntUnsigned:
		return "BIGINT UNSIGNED"
	case Float:
		return "FLOAT"
	case Double:
		return "DOUBLE"
	case Decimal:
		return "DECIMAL"
	case NChar:
		return "NCHAR"
	case VarChar:
		return "VARCHAR"
	case Binary:
		return "BINARY"
	case JSON:
		return "JSON"
	case VarBinary:
		return "VARBINARY"
	case Geometry:
		return "GEOMETRY"
	case Timestamp:
		return "TIMESTAMP"
	default:
		return fmt.Sprintf("Tag(%d)", int(t))
	}
}

// IsVarLength reports whether values of this type are stored in the
// variable-length region of a table block rather than a fixed-width slot.
func (t Tag) IsVarLength() bool {
	switch t {
	case NChar, VarChar, Binary, JSON, VarBinary, Geometry:
		return true
	default:
		return false
	}
}

// FixedSizeBytes returns the per-row storage width for a fixed-length type.
// It panics if called on a variable-length type; callers must check
// IsVarLength first.
func (t Tag) FixedSizeBytes() int {
	switch t {
	case Bool, TinyInt, TinyIntUnsigned:
		return 1
	case SmallInt, SmallIntUnsigned:
		return 2
	case Int, IntUnsigned, Float:
		return 4
	case BigInt, BigIntUnsigned, Double, Timestamp:
		return 8
	case Decimal:
		return decimalWidthBytes
	default:
		panic(fmt.Sprintf("coltype: %s is not a fixed-length type", t))
	}
}

// Config describes one declared column (or tag) as read from a schema
// document: its name, type, and generation/storage parameters.
type Config struct {
	Name string
	Tag  Tag

	// Count is how many physical columns this config expands into
	// (e.g. "count: 4" on a FLOAT column produces col, col2, col3, col4).
	Count int

	// MaxLength is the declared capacity of a variable-length column:
	// UTF-16 code units for NCHAR, bytes for VARCHAR/BINARY/VARBINARY,
	// a documented cap for JSON/GEOMETRY text.
	MaxLength int

	// Precision and Scale apply to Decimal columns only.
	Precision int
	Scale     int

	PrimaryKey bool

	NullRatio float64
	NoneRatio float64

	Props map[string]string
}

// ParseType parses schema type strings like "varchar(20)", "decimal(10,2)",
// "nchar(16)", "bigint" into a Tag plus any length/precision arguments.
func ParseType(s string) (Tag, int, int, error) {
	s = strings.TrimSpace(s)
	name := s
	args := ""
	if i := strings.IndexByte(s, '('); i >= 0 {
		if !strings.HasSuffix(s, ")") {
			return 0, 0, 0, errors.Newf("coltype: malformed type %q: missing closing paren", s)
		}
		name = strings.TrimSpace(s[:i])
		args = s[i+1 : len(s)-1]
	}

	switch strings.ToLower(name) {
	case "bool", "boolean":
		return Bool, 0, 0, nil
	case "tinyint":
		return TinyInt, 0, 0, nil
	case "tinyint unsigned", "tinyint_unsigned":
		return TinyIntUnsigned, 0, 0, nil
	case "smallint":
		return SmallInt, 0, 0, nil
	case "smallint unsigned", "smallint_unsigned":
		return SmallIntUnsigned, 0, 0, nil
	case "int", "integer":
		return Int, 0, 0, nil
	case "int unsigned", "int_unsigned":
		return IntUnsigned, 0, 0, nil
	case "bigint":
		return BigInt, 0, 0, nil
	case "bigint unsigned", "bigint_unsigned":
		return BigIntUnsigned, 0, 0, nil
	case "float":
		return Float, 0, 0, nil
	case "double":
		return Double, 0, 0, nil
	case "json":
		return JSON, 0, 0, nil
	case "geometry":
		return Geometry, 0, 0, nil
	case "timestamp":
		return Timestamp, 0, 0, nil
	case "decimal":
		p, s2, err := parseTwoInts(args, 18, 2)
		if err != nil {
			return 0, 0, 0, errors.Wrapf(err, "coltype: parsing decimal args in %q", s)
		}
		return Decimal, p, s2, nil
	case "nchar":
		n, err := parseOneInt(args, 64)
		if err != nil {
			return 0, 0, 0, errors.Wrapf(err, "coltype: parsing nchar args in %q", s)
		}
		return NChar, n, 0, nil
	case "varchar", "nvarchar":
		n, err := parseOneInt(args, 64)
		if err != nil {
			return 0, 0, 0, errors.Wrapf(err, "coltype: parsing varchar args in %q", s)
		}
		return VarChar, n, 0, nil
	case "binary", "varbinary":
		tag := Binary
		if strings.EqualFold(name, "varbinary") {
			tag = VarBinary
		}
		n, err := parseOneInt(args, 64)
		if err != nil {
			return 0, 0, 0, errors.Wrapf(err, "coltype: parsing %s args in %q", name, s)
		}
		return tag, n, 0, nil
	default:
		return 0, 0, 0, errors.Newf("coltype: unknown column type %q", s)
	}
}

func parseOneInt(args string, def int) (int, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return def, nil
	}
	return strconv.Atoi(args)
}

func parseTwoInts(args string, defA, defB int) (int, int, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return defA, defB, nil
	}
	parts := strings.Split(args, ",")
	if len(parts) != 2 {
		return 0, 0, errors.Newf("expected \"p,s\", got %q", args)
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}
