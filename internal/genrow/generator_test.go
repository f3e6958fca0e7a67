package genrow

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taosdata/taosgen/internal/coltype"
)

func TestOrderGeneratorCycles(t *testing.T) {
	g, err := Build(ColumnConfig{
		Column:   coltype.Config{Tag: coltype.Int},
		GenType:  GenOrder,
		OrderMin: 10,
		OrderMax: 12,
	})
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(1))
	var got []int64
	for i := 0; i < 5; i++ {
		v, err := g.Generate(i, 0, rnd)
		require.NoError(t, err)
		got = append(got, v.(int64))
	}
	require.Equal(t, []int64{10, 11, 12, 10, 11}, got)
}

func TestExpressionGeneratorBindsIAndT(t *testing.T) {
	g, err := Build(ColumnConfig{
		Column:  coltype.Config{Tag: coltype.Double},
		GenType: GenExpression,
		Formula: "_i * 2 + _t",
	})
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(1))
	v, err := g.Generate(3, 100, rnd)
	require.NoError(t, err)
	require.Equal(t, float64(106), v)
}

func TestExpressionGeneratorParens(t *testing.T) {
	g, err := Build(ColumnConfig{
		Column:  coltype.Config{Tag: coltype.Double},
		GenType: GenExpression,
		Formula: "(_i + 1) * 3",
	})
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(1))
	v, err := g.Generate(1, 0, rnd)
	require.NoError(t, err)
	require.Equal(t, float64(6), v)
}

func TestExpressionGeneratorRejectsUnboundVar(t *testing.T) {
	_, err := Build(ColumnConfig{
		Column:  coltype.Config{Tag: coltype.Double},
		GenType: GenExpression,
		Formula: "_x + 1",
	})
	require.NoError(t, err) // parses fine, fails at eval time

	g, _ := Build(ColumnConfig{Column: coltype.Config{Tag: coltype.Double}, GenType: GenExpression, Formula: "_x + 1"})
	_, err = g.Generate(0, 0, rand.New(rand.NewSource(1)))
	require.Error(t, err)
}

func TestFromListCycles(t *testing.T) {
	g, err := Build(ColumnConfig{
		Column:  coltype.Config{Tag: coltype.VarChar},
		GenType: GenFromList,
		Values:  []any{"a", "b", "c"},
	})
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(1))
	var got []string
	for i := 0; i < 4; i++ {
		v, err := g.Generate(i, 0, rnd)
		require.NoError(t, err)
		got = append(got, v.(string))
	}
	require.Equal(t, []string{"a", "b", "c", "a"}, got)
}

func TestNullNoneNoneCheckedFirst(t *testing.T) {
	inner := GeneratorFunc(func(i int, t int64, rnd *rand.Rand) (any, error) { return int64(42), nil })
	wrapped := WrapNullNone(inner, 1.0, 1.0) // both ratios saturated

	v, err := wrapped.Generate(0, 0, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	require.Nil(t, v, "none_ratio draw must win when both null and none would fire")
}

func TestTimestampGeneratorMonotonic(t *testing.T) {
	g, err := NewTimestampGenerator(TimestampConfig{Precision: "ms", StartTimestamp: 1000, Step: 10})
	require.NoError(t, err)

	require.Equal(t, int64(1000), g.Next())
	require.Equal(t, int64(1010), g.Next())
	require.Equal(t, int64(1020), g.Next())
}

func TestParseStartTimestampNowOffset(t *testing.T) {
	isNow, offset, err := ParseStartTimestamp("now()-1h", "ms")
	require.NoError(t, err)
	require.True(t, isNow)
	require.Equal(t, int64(-3600*1000), offset)
}

func TestDisorderInjectorOnlyShiftsInsideInterval(t *testing.T) {
	inj, err := NewDisorderInjector([]DisorderIntervalConfig{
		{TimeStart: 100, TimeEnd: 200, Ratio: 1.0, LatencyRangeMs: 50},
	}, "ms")
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(1))
	require.Equal(t, int64(50), inj.Apply(0, 50, rnd), "outside the interval, ts passes through unchanged")

	shifted := inj.Apply(0, 150, rnd)
	require.Less(t, shifted, int64(150), "inside the interval with ratio 1.0, ts must shift backward")
	require.GreaterOrEqual(t, shifted, int64(100))
}

func TestDisorderInjectorZeroRatioNeverShifts(t *testing.T) {
	inj, err := NewDisorderInjector([]DisorderIntervalConfig{
		{TimeStart: 0, TimeEnd: 1000, Ratio: 0, LatencyRangeMs: 50},
	}, "ms")
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(1))
	require.Equal(t, int64(500), inj.Apply(0, 500, rnd))
}

func TestNewDisorderInjectorConvertsLatencyToPrecisionUnit(t *testing.T) {
	inj, err := NewDisorderInjector([]DisorderIntervalConfig{
		{TimeStart: 0, TimeEnd: 1000, Ratio: 1.0, LatencyRangeMs: 1},
	}, "us")
	require.NoError(t, err)
	require.Equal(t, int64(1000), inj.Intervals[0].MaxOffset, "1ms expressed in microseconds is 1000us")
}

func TestRowGeneratorProducesRows(t *testing.T) {
	rg, err := NewRowGenerator("t0", TimestampConfig{Precision: "ms", StartTimestamp: 0, Step: 1}, []ColumnConfig{
		{Column: coltype.Config{Tag: coltype.Int}, GenType: GenOrder, OrderMin: 0, OrderMax: 100},
	}, nil, 1, nil)
	require.NoError(t, err)

	rows, err := rg.GenerateN(3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, int64(0), rows[0].Timestamp)
	require.Equal(t, int64(1), rows[1].Timestamp)
}

func TestRowGeneratorGeneratesTagsOnceFromSchema(t *testing.T) {
	rg, err := NewRowGenerator("t0", TimestampConfig{Precision: "ms", StartTimestamp: 0, Step: 1},
		[]ColumnConfig{{Column: coltype.Config{Tag: coltype.Int}, GenType: GenOrder, OrderMin: 0, OrderMax: 100}},
		[]ColumnConfig{
			{Column: coltype.Config{Name: "region", Tag: coltype.VarChar, MaxLength: 16}, GenType: GenFromList, Values: []any{"us-west"}},
			{Column: coltype.Config{Name: "sensor_id", Tag: coltype.Int}, GenType: GenOrder, OrderMin: 1001, OrderMax: 1001},
		}, 1, nil)
	require.NoError(t, err)
	require.Equal(t, []any{"us-west", int64(1001)}, rg.Tags)

	// Tags are generated once at construction and never re-rolled per row.
	_, err = rg.GenerateN(3)
	require.NoError(t, err)
	require.Equal(t, []any{"us-west", int64(1001)}, rg.Tags)
}
