package genrow

import (
	"math/rand"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/coltype"
)

// randomGenerator implements gen_type=random: a value drawn uniformly,
// normally, or from a corpus list, then converted to the column's declared
// storage type. Grounded on ColumnConfig.hpp's distribution/min/max/corpus
// fields and on kwbase/pkg/workload/rand/rand.go's per-worker rand.Rand +
// type-switch-to-storage-type conversion pattern (there: DatumToGoSQL).
type randomGenerator struct {
	tag          coltype.Tag
	distribution Distribution
	min, max     float64
	decMin       coltype.Dec128
	decMax       coltype.Dec128
	isDecimal    bool
	corpus       []string
	maxLength    int
}

func newRandomGenerator(c ColumnConfig) (Generator, error) {
	g := &randomGenerator{
		tag:          c.Column.Tag,
		distribution: c.Distribution,
		min:          c.Min,
		max:          c.Max,
		corpus:       c.Corpus,
		maxLength:    c.Column.MaxLength,
	}
	if g.distribution == "" {
		g.distribution = DistUniform
	}
	if c.Column.Tag == coltype.Decimal {
		g.isDecimal = true
		var err error
		decMin := c.DecMin
		if decMin == "" {
			decMin = "0"
		}
		decMax := c.DecMax
		if decMax == "" {
			decMax = "0"
		}
		if g.decMin, err = coltype.ParseDec128(decMin, c.Column.Scale); err != nil {
			return nil, errors.Wrap(err, "genrow: parsing dec_min")
		}
		if g.decMax, err = coltype.ParseDec128(decMax, c.Column.Scale); err != nil {
			return nil, errors.Wrap(err, "genrow: parsing dec_max")
		}
	}
	return GeneratorFunc(g.generate), nil
}

func (g *randomGenerator) generate(i int, t int64, rnd *rand.Rand) (any, error) {
	if g.distribution == DistCorpus {
		if len(g.corpus) == 0 {
			return nil, errors.Newf("genrow: random generator with distribution=corpus has an empty corpus")
		}
		return g.corpus[rnd.Intn(len(g.corpus))], nil
	}

	switch g.tag {
	case coltype.Bool:
		return rnd.Intn(2) == 1, nil
	case coltype.Decimal:
		return g.randomDecimal(rnd), nil
	case coltype.Float, coltype.Double:
		return g.randomFloat(rnd), nil
	case coltype.NChar, coltype.VarChar, coltype.Binary, coltype.VarBinary, coltype.JSON, coltype.Geometry:
		return randomString(rnd, g.maxLength), nil
	default:
		return g.randomInt(rnd), nil
	}
}

func (g *randomGenerator) randomFloat(rnd *rand.Rand) float64 {
	lo, hi := g.min, g.max
	if lo == 0 && hi == 0 {
		hi = 1
	}
	switch g.distribution {
	case DistNormal:
		mean := (lo + hi) / 2
		stddev := (hi - lo) / 6
		if stddev <= 0 {
			stddev = 1
		}
		return rnd.NormFloat64()*stddev + mean
	default:
		return lo + rnd.Float64()*(hi-lo)
	}
}

func (g *randomGenerator) randomInt(rnd *rand.Rand) int64 {
	lo, hi := int64(g.min), int64(g.max)
	if hi <= lo {
		hi = lo + 1
	}
	switch g.distribution {
	case DistNormal:
		mean := float64(lo+hi) / 2
		stddev := float64(hi-lo) / 6
		if stddev <= 0 {
			stddev = 1
		}
		v := int64(rnd.NormFloat64()*stddev + mean)
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
		return v
	default:
		return lo + rnd.Int63n(hi-lo)
	}
}

func (g *randomGenerator) randomDecimal(rnd *rand.Rand) coltype.Dec128 {
	lo := g.decMin.Unscaled.Int64()
	hi := g.decMax.Unscaled.Int64()
	if hi <= lo {
		hi = lo + 1
	}
	span := hi - lo
	v := lo + rnd.Int63n(span)
	d := g.decMin
	d.Unscaled.SetInt64(v)
	return d
}

const randomStringAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomString(rnd *rand.Rand, maxLength int) string {
	n := maxLength
	if n <= 0 {
		n = 16
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = randomStringAlphabet[rnd.Intn(len(randomStringAlphabet))]
	}
	return string(b)
}
