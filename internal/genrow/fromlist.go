package genrow

import (
	"math/rand"

	"github.com/cockroachdb/errors"
)

// fromListGenerator implements gen_type=fromlist: rows draw from a fixed,
// pre-populated list of values, cycling in order rather than sampling
// (distinct from distribution=corpus, which samples randomly). Mirrors
// ColumnConfig.hpp's str_values/dbl_values population via
// set_values_from_strings/set_values_from_doubles.
type fromListGenerator struct {
	values []any
	next   int
}

func newFromListGenerator(c ColumnConfig) (Generator, error) {
	if len(c.Values) == 0 {
		return nil, errors.Newf("genrow: fromlist generator requires a non-empty values list")
	}
	return &fromListGenerator{values: c.Values}, nil
}

func (g *fromListGenerator) Generate(i int, t int64, rnd *rand.Rand) (any, error) {
	v := g.values[g.next]
	g.next = (g.next + 1) % len(g.values)
	return v, nil
}
