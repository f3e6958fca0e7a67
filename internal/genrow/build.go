package genrow

import "github.com/cockroachdb/errors"

// Build constructs the unwrapped Generator for a column config's gen_type,
// dispatching to the random/order/expression/fromlist builders. Callers
// apply WrapNullNone themselves (NewRowGenerator does this for every
// column it builds).
func Build(c ColumnConfig) (Generator, error) {
	switch c.GenType {
	case "", GenRandom:
		return newRandomGenerator(c)
	case GenOrder:
		return newOrderGenerator(c)
	case GenExpression:
		return newExpressionGenerator(c)
	case GenFromList:
		return newFromListGenerator(c)
	default:
		return nil, errors.Newf("genrow: unknown gen_type %q", c.GenType)
	}
}
