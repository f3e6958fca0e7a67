// Package genrow implements the per-column row-data generators: random
// (uniform/normal/corpus), order (cycled min/max), expression (a small
// arithmetic language over the bound variables _i and _t), fromlist, and
// timestamp generation, plus the null_ratio/none_ratio and out-of-order
// injection every column generator is wrapped with.
//
// Types here mirror original_source's ColumnConfig.hpp field-for-field
// (same gen_type discriminator, same distribution/min/max/corpus/
// order_min/order_max/formula attribute names) translated from optional
// C++ fields to Go zero-value-or-pointer fields.
package genrow

import "github.com/taosdata/taosgen/internal/coltype"

// GenType is the column generator discriminator (ColumnConfig.gen_type).
type GenType string

const (
	GenRandom     GenType = "random"
	GenOrder      GenType = "order"
	GenExpression GenType = "expression"
	GenFromList   GenType = "fromlist"
	GenTimestamp  GenType = "timestamp"
)

// Distribution selects the random generator's value distribution.
type Distribution string

const (
	DistUniform Distribution = "uniform"
	DistNormal  Distribution = "normal"
	DistCorpus  Distribution = "corpus"
)

// ColumnConfig describes one generated column: its storage type (coltype.Config)
// plus the generator parameters controlling what values it produces.
type ColumnConfig struct {
	Column coltype.Config

	GenType GenType

	// random
	Distribution Distribution
	Min, Max     float64
	DecMin       string // decimal literal, overrides Min for DECIMAL columns
	DecMax       string
	Corpus       []string
	Chinese      bool

	// order
	OrderMin, OrderMax int64

	// expression
	Formula string

	// fromlist
	Values []any

	// timestamp
	Timestamp TimestampConfig

	NullRatio float64
	NoneRatio float64
}

// TimestampConfig mirrors TimestampGeneratorConfig.hpp: a start point (an
// absolute epoch value or the literal "now"), a precision unit, and a
// per-row step (a fixed integer delta, honoring the same unit).
type TimestampConfig struct {
	// StartIsNow is true when start_timestamp was the literal "now" or a
	// "now()+/-N<unit>" expression rather than a fixed epoch value.
	StartIsNow     bool
	StartTimestamp int64 // epoch value in Precision units, when !StartIsNow
	NowOffset      int64 // offset in Precision units, added to now() when StartIsNow

	// Precision is one of "ms", "us", "ns" (TimestampGeneratorConfig's
	// timestamp_precision), controlling the unit Step and StartTimestamp
	// are expressed in.
	Precision string

	Step int64
}
