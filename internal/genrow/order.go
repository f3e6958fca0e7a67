package genrow

import (
	"math/rand"

	"github.com/taosdata/taosgen/internal/coltype"
)

// orderGenerator implements gen_type=order: values cycle monotonically
// from order_min to order_max and wrap back to order_min, matching
// ColumnConfig.hpp's order_min/order_max fields. Unlike gen_type=random,
// the sequence is deterministic and independent of the row generator's
// rand.Rand.
type orderGenerator struct {
	tag      coltype.Tag
	min, max int64
	next     int64
}

func newOrderGenerator(c ColumnConfig) (Generator, error) {
	g := &orderGenerator{
		tag:  c.Column.Tag,
		min:  c.OrderMin,
		max:  c.OrderMax,
		next: c.OrderMin,
	}
	if g.max <= g.min {
		g.max = g.min + 1
	}
	return g, nil
}

func (g *orderGenerator) Generate(i int, t int64, rnd *rand.Rand) (any, error) {
	v := g.next
	g.next++
	if g.next > g.max {
		g.next = g.min
	}
	if g.tag == coltype.Decimal {
		d := coltype.Dec128{}
		d.Unscaled.SetInt64(v)
		return d, nil
	}
	return v, nil
}
