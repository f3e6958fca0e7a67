package genrow

import (
	"math/rand"

	"github.com/taosdata/taosgen/internal/pool"
)

// nullNoneGenerator wraps any column Generator with independent Bernoulli
// draws for "none" (the column is omitted from the row entirely) and
// "null" (the column is present with an explicit SQL NULL). None is
// checked first: per the none_ratio/null_ratio resolution, a row that
// draws "none" never also produces a NULL marker, it simply never reaches
// the wrapped generator or the null path.
type nullNoneGenerator struct {
	inner     Generator
	nullRatio float64
	noneRatio float64
}

// WrapNullNone wraps inner with null_ratio/none_ratio handling. A zero
// ratio for both means inner is returned unwrapped.
func WrapNullNone(inner Generator, nullRatio, noneRatio float64) Generator {
	if nullRatio <= 0 && noneRatio <= 0 {
		return inner
	}
	return &nullNoneGenerator{inner: inner, nullRatio: nullRatio, noneRatio: noneRatio}
}

func (g *nullNoneGenerator) Generate(i int, t int64, rnd *rand.Rand) (any, error) {
	if g.noneRatio > 0 && rnd.Float64() < g.noneRatio {
		return nil, nil
	}
	if g.nullRatio > 0 && rnd.Float64() < g.nullRatio {
		return pool.NullColumn, nil
	}
	return g.inner.Generate(i, t, rnd)
}
