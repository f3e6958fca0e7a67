package genrow

import (
	"math/rand"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/pool"
)

// ErrColumnNotFound is returned when an expression formula references a
// variable other than the bound _i and _t.
var ErrColumnNotFound = errors.New("genrow: column not found")

// Generator produces one column value per call. i is the 0-based row
// index within the current generation run; t is that row's timestamp.
// Implementations are not expected to be safe for concurrent use by
// multiple goroutines sharing one *rand.Rand; a RowGenerator owns its own
// rand.Rand per the teacher corpus's per-worker-rand convention
// (kwbase/pkg/workload/rand/rand.go).
type Generator interface {
	Generate(i int, t int64, rnd *rand.Rand) (any, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(i int, t int64, rnd *rand.Rand) (any, error)

func (f GeneratorFunc) Generate(i int, t int64, rnd *rand.Rand) (any, error) { return f(i, t, rnd) }

// RowGenerator produces whole rows by combining a timestamp generator with
// one wrapped column generator per schema column, mirroring the original
// RowGenerator.hpp's combination of a TimestampGenerator and a vector of
// ColumnGenerators into one RowType per call.
type RowGenerator struct {
	TableName string
	Timestamp *TimestampGenerator
	Columns   []Generator // already wrapped with null/none handling, in schema order
	Disorder  *DisorderInjector // nil if no out-of-order injection configured

	// Tags holds this table's tag-value tuple, in tag-schema order,
	// generated once at construction (register_table_tags in the
	// original registers one tag tuple per table, not per row, since
	// every row of a table shares the same tags).
	Tags []any

	rnd *rand.Rand
}

// NewRowGenerator builds a RowGenerator from column configs, constructing
// the wrapped generator chain for each column via Build, and generates this
// table's tag-value tuple (if any tags are configured) once from the same
// seeded rand.Rand, mirroring TableDataManager's "generate tags once when a
// table is registered" behavior.
func NewRowGenerator(tableName string, tsCfg TimestampConfig, cols []ColumnConfig, tags []ColumnConfig, seed int64, disorder *DisorderInjector) (*RowGenerator, error) {
	ts, err := NewTimestampGenerator(tsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "genrow: building timestamp generator")
	}

	gens := make([]Generator, len(cols))
	for i, c := range cols {
		g, err := Build(c)
		if err != nil {
			return nil, errors.Wrapf(err, "genrow: building generator for column %q", c.Column.Name)
		}
		gens[i] = WrapNullNone(g, c.NullRatio, c.NoneRatio)
	}

	rnd := rand.New(rand.NewSource(seed))
	tagValues, err := generateTagValues(tags, rnd)
	if err != nil {
		return nil, errors.Wrapf(err, "genrow: generating tags for table %q", tableName)
	}

	return &RowGenerator{
		TableName: tableName,
		Timestamp: ts,
		Columns:   gens,
		Disorder:  disorder,
		Tags:      tagValues,
		rnd:       rnd,
	}, nil
}

// generateTagValues builds one static value per tag config, drawn once from
// rnd rather than once per row, matching register_table_tags's "a tag tuple
// belongs to a table, not a row" semantics. Order/expression generators are
// evaluated at i=0/t=0 since a tag has no row index or timestamp of its own.
func generateTagValues(tags []ColumnConfig, rnd *rand.Rand) ([]any, error) {
	if len(tags) == 0 {
		return nil, nil
	}

	values := make([]any, len(tags))
	for i, c := range tags {
		g, err := Build(c)
		if err != nil {
			return nil, errors.Wrapf(err, "genrow: building generator for tag %q", c.Column.Name)
		}
		wrapped := WrapNullNone(g, c.NullRatio, c.NoneRatio)

		v, err := wrapped.Generate(0, 0, rnd)
		if err != nil {
			return nil, errors.Wrapf(err, "genrow: generating tag %q", c.Column.Name)
		}
		values[i] = v
	}
	return values, nil
}

// Generate produces the i-th row for this table.
func (rg *RowGenerator) Generate(i int) (pool.RowData, error) {
	ts := rg.Timestamp.Next()
	if rg.Disorder != nil {
		ts = rg.Disorder.Apply(i, ts, rg.rnd)
	}

	values := make([]any, len(rg.Columns))
	for idx, g := range rg.Columns {
		v, err := g.Generate(i, ts, rg.rnd)
		if err != nil {
			return pool.RowData{}, errors.Wrapf(err, "genrow: generating column %d for table %q row %d", idx, rg.TableName, i)
		}
		values[idx] = v
	}

	return pool.RowData{Timestamp: ts, Columns: values}, nil
}

// GenerateN produces count consecutive rows, mirroring RowGenerator::generate(size_t count).
func (rg *RowGenerator) GenerateN(count int) ([]pool.RowData, error) {
	rows := make([]pool.RowData, count)
	for i := 0; i < count; i++ {
		r, err := rg.Generate(i)
		if err != nil {
			return nil, err
		}
		rows[i] = r
	}
	return rows, nil
}
