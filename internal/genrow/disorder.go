package genrow

import (
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"
)

// DisorderIntervalConfig is one generation.data_disorder.intervals entry:
// timestamps between TimeStart and TimeEnd (inclusive, in the stream's own
// timestamp-precision units) are, with probability Ratio, shifted backward
// by a uniform random offset up to LatencyRangeMs milliseconds, matching
// GenerationConfig::DataDisorder::Interval.
type DisorderIntervalConfig struct {
	TimeStart      int64
	TimeEnd        int64
	Ratio          float64
	LatencyRangeMs int64
}

// DisorderInterval is a DisorderIntervalConfig with LatencyRangeMs already
// converted into the owning TimestampGenerator's own precision unit, so
// Apply never has to redo that conversion per row.
type DisorderInterval struct {
	TimeStart int64
	TimeEnd   int64
	Ratio     float64
	MaxOffset int64
}

// DisorderInjector perturbs an otherwise-monotonic timestamp stream inside
// configured intervals only, producing out-of-order rows for testing a
// sink/formatter's handling of disordered data. A nil *DisorderInjector
// (data_disorder.enabled==false, or no intervals configured) leaves every
// timestamp untouched.
type DisorderInjector struct {
	Intervals []DisorderInterval
}

// NewDisorderInjector builds an injector from raw interval configs,
// converting each LatencyRangeMs into precision's own unit once up front.
// Returns nil, nil if intervals is empty, matching DataDisorder's
// enabled-iff-non-empty-intervals rule.
func NewDisorderInjector(intervals []DisorderIntervalConfig, precision string) (*DisorderInjector, error) {
	if len(intervals) == 0 {
		return nil, nil
	}
	unit, err := precisionUnit(precision)
	if err != nil {
		return nil, errors.Wrap(err, "genrow: building disorder injector")
	}

	out := make([]DisorderInterval, len(intervals))
	for i, iv := range intervals {
		if iv.TimeEnd < iv.TimeStart {
			return nil, errors.Newf("genrow: disorder interval %d has time_end before time_start", i)
		}
		out[i] = DisorderInterval{
			TimeStart: iv.TimeStart,
			TimeEnd:   iv.TimeEnd,
			Ratio:     iv.Ratio,
			MaxOffset: msToUnit(iv.LatencyRangeMs, unit),
		}
	}
	return &DisorderInjector{Intervals: out}, nil
}

// msToUnit converts a millisecond count into the given precision unit,
// rounding toward zero when unit is coarser than a millisecond.
func msToUnit(ms int64, unit time.Duration) int64 {
	if unit <= time.Millisecond {
		return ms * int64(time.Millisecond/unit)
	}
	return ms / int64(unit/time.Millisecond)
}

// Apply returns ts unchanged unless it falls inside one of d's configured
// intervals, in which case it is shifted backward by a random offset up to
// that interval's MaxOffset with probability Ratio. i is accepted for
// signature parity with the row-generation call site but unused, matching
// the original's per-timestamp (not per-index) gating.
func (d *DisorderInjector) Apply(i int, ts int64, rnd *rand.Rand) int64 {
	if d == nil {
		return ts
	}
	for _, iv := range d.Intervals {
		if ts < iv.TimeStart || ts > iv.TimeEnd {
			continue
		}
		if iv.Ratio <= 0 || iv.MaxOffset <= 0 {
			return ts
		}
		if rnd.Float64() >= iv.Ratio {
			return ts
		}
		offset := rnd.Int63n(iv.MaxOffset + 1)
		shifted := ts - offset
		if shifted < 0 {
			return ts
		}
		return shifted
	}
	return ts
}
