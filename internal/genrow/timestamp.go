package genrow

import (
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// precisionUnit returns the time.Duration represented by one unit of the
// given precision string ("ms" or empty, "us", "ns", "s", "m", "h"), matching
// TimestampGeneratorConfig.hpp's timestamp_precision field.
func precisionUnit(precision string) (time.Duration, error) {
	switch precision {
	case "", "ms":
		return time.Millisecond, nil
	case "us":
		return time.Microsecond, nil
	case "ns":
		return time.Nanosecond, nil
	case "s":
		return time.Second, nil
	case "m":
		return time.Minute, nil
	case "h":
		return time.Hour, nil
	default:
		return 0, errors.Newf("genrow: unknown timestamp precision %q", precision)
	}
}

// TimestampGenerator produces a monotonic stream of timestamps starting at
// either a fixed epoch value or now(), advancing by a fixed per-row step,
// matching TimestampGeneratorConfig's {start_timestamp, timestamp_step}.
// ParseStartTimestamp parses the "now()±N<unit>" start-timestamp spelling
// the original's config layer accepts in addition to a bare "now".
type TimestampGenerator struct {
	unit time.Duration
	next int64
	step int64
}

// NewTimestampGenerator builds a generator from a resolved TimestampConfig.
func NewTimestampGenerator(cfg TimestampConfig) (*TimestampGenerator, error) {
	unit, err := precisionUnit(cfg.Precision)
	if err != nil {
		return nil, err
	}

	start := cfg.StartTimestamp
	if cfg.StartIsNow {
		start = time.Now().UnixNano()/int64(unit) + cfg.NowOffset
	}

	step := cfg.Step
	if step == 0 {
		step = 1
	}

	return &TimestampGenerator{unit: unit, next: start, step: step}, nil
}

// Next returns the next timestamp in the sequence and advances the cursor.
func (g *TimestampGenerator) Next() int64 {
	v := g.next
	g.next += g.step
	return v
}

// SkipTo advances the cursor past lastTimestamp, so the next Next() call
// returns the first unseen timestamp strictly greater than it. Used by
// checkpoint recovery to resume a table's generation without re-emitting
// rows the sink already committed.
func (g *TimestampGenerator) SkipTo(lastTimestamp int64) {
	for g.next <= lastTimestamp {
		g.next += g.step
	}
}

// ParseStartTimestamp parses the start_timestamp config value: the literal
// "now", or "now()+N<unit>"/"now()-N<unit>" (unit one of s/m/h/ms/us/ns;
// no unit means ms), or a
// bare integer epoch value in the declared precision's units.
func ParseStartTimestamp(s string, precision string) (isNow bool, epoch int64, err error) {
	s = strings.TrimSpace(s)
	if s == "now" {
		return true, 0, nil
	}
	if strings.HasPrefix(s, "now()") {
		rest := strings.TrimPrefix(s, "now()")
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return true, 0, nil
		}
		sign := int64(1)
		switch rest[0] {
		case '+':
			rest = rest[1:]
		case '-':
			sign = -1
			rest = rest[1:]
		default:
			return false, 0, errors.Newf("genrow: malformed now() offset %q, expected +/- after now()", s)
		}
		n, unitStr, err := splitNumberUnit(rest)
		if err != nil {
			return false, 0, errors.Wrapf(err, "genrow: parsing now() offset %q", s)
		}
		unit, err := precisionUnit(unitStr)
		if err != nil {
			return false, 0, err
		}
		baseUnit, err := precisionUnit(precision)
		if err != nil {
			return false, 0, err
		}
		offset := sign * n * int64(unit/baseUnit)
		return true, offset, nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return false, 0, errors.Wrapf(err, "genrow: invalid start_timestamp %q", s)
	}
	return false, n, nil
}

func splitNumberUnit(s string) (int64, string, error) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, "", errors.Newf("genrow: expected a numeric magnitude, got %q", s)
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, "", err
	}
	return n, s[i:], nil
}
