package msgfmt

import (
	"context"
	"testing"

	"github.com/influxdata/line-protocol/v2/lineprotocol"
	"github.com/stretchr/testify/require"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/pool"
)

func buildBlock(t *testing.T, schema []coltype.Config, rows []pool.RowData) *pool.Block {
	t.Helper()
	p, err := pool.New(pool.Config{BlockCount: 1, MaxTablesPerBlock: 1, MaxRowsPerTable: len(rows), Schema: schema})
	require.NoError(t, err)
	blk, err := p.Acquire(context.Background())
	require.NoError(t, err)
	tb := blk.TableBlock(0)
	tb.TableName = "sensor_1"
	for _, r := range rows {
		require.NoError(t, tb.AddRow(r))
	}
	blk.Finalize()
	return blk
}

func TestParsePatternTokenizesTextAndPlaceholders(t *testing.T) {
	toks, err := parsePattern("prefix-{table}-{ts}-suffix")
	require.NoError(t, err)
	require.Equal(t, []patternToken{
		{kind: tokenText, text: "prefix-"},
		{kind: tokenPlaceholder, text: "table"},
		{kind: tokenText, text: "-"},
		{kind: tokenPlaceholder, text: "ts"},
		{kind: tokenText, text: "-suffix"},
	}, toks)
}

func TestParsePatternRejectsUnterminatedPlaceholder(t *testing.T) {
	_, err := parsePattern("abc{def")
	require.Error(t, err)
}

func TestPatternGeneratorResolvesReservedAndColumnKeys(t *testing.T) {
	schema := []coltype.Config{{Name: "v_int", Tag: coltype.Int}}
	blk := buildBlock(t, schema, []pool.RowData{{Timestamp: 42, Columns: []any{int64(7)}}})
	tb := &blk.Tables[0]

	pg, err := NewPatternGenerator("{table}/{ts}/{v_int}/{missing}", schema)
	require.NoError(t, err)

	s, err := pg.Generate(tb, 0)
	require.NoError(t, err)
	require.Equal(t, "sensor_1/42/7/{COL_NOT_FOUND:missing}", s)
}

func TestNewKeyGeneratorRejectsMultiTokenIntegerPattern(t *testing.T) {
	schema := []coltype.Config{{Name: "v_int", Tag: coltype.Int}}
	_, err := NewKeyGenerator("{table}-{v_int}", SerializerInt32, schema)
	require.ErrorIs(t, err, ErrNotSinglePlaceholder)
}

func TestKeyGeneratorStringUTF8(t *testing.T) {
	schema := []coltype.Config{{Name: "v_int", Tag: coltype.Int}}
	blk := buildBlock(t, schema, []pool.RowData{{Timestamp: 1, Columns: []any{int64(5)}}})
	tb := &blk.Tables[0]

	kg, err := NewKeyGenerator("{table}:{v_int}", SerializerStringUTF8, schema)
	require.NoError(t, err)

	key, err := kg.Generate(tb, 0)
	require.NoError(t, err)
	require.Equal(t, "sensor_1:5", string(key))
}

func TestKeyGeneratorInt32BigEndian(t *testing.T) {
	schema := []coltype.Config{{Name: "v_int", Tag: coltype.Int}}
	blk := buildBlock(t, schema, []pool.RowData{{Timestamp: 1, Columns: []any{int64(258)}}})
	tb := &blk.Tables[0]

	kg, err := NewKeyGenerator("{v_int}", SerializerInt32, schema)
	require.NoError(t, err)

	key, err := kg.Generate(tb, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x00, 0x01, 0x02}, key)
}

func TestJSONFormatterPreservesKeyOrder(t *testing.T) {
	schema := []coltype.Config{
		{Name: "v_int", Tag: coltype.Int},
		{Name: "v_str", Tag: coltype.VarChar, MaxLength: 16},
	}
	blk := buildBlock(t, schema, []pool.RowData{
		{Timestamp: 100, Columns: []any{int64(1), "a"}},
		{Timestamp: 200, Columns: []any{nil, "b"}},
	})

	f, err := NewJSONFormatter(schema, "table", "")
	require.NoError(t, err)
	res, err := f.Format(blk)
	require.NoError(t, err)
	require.Equal(t, format.InsertPayload, res.Kind)

	payload, ok := res.Payload.([]TopicPayload)
	require.True(t, ok)
	require.Len(t, payload, 2)
	require.Equal(t, "sensor_1", payload[0].Topic)
	require.Equal(t, `{"table":"sensor_1","ts":100,"v_int":1,"v_str":"a"}`, string(payload[0].Payload))
	require.Equal(t, `{"table":"sensor_1","ts":200,"v_int":null,"v_str":"b"}`, string(payload[1].Payload))
}

func TestJSONFormatterIgnoresEmptyBlock(t *testing.T) {
	schema := []coltype.Config{{Name: "v_int", Tag: coltype.Int}}
	p, err := pool.New(pool.Config{BlockCount: 1, MaxTablesPerBlock: 1, MaxRowsPerTable: 1, Schema: schema})
	require.NoError(t, err)
	blk, err := p.Acquire(context.Background())
	require.NoError(t, err)
	blk.Finalize()

	f, err := NewJSONFormatter(schema, "table", "")
	require.NoError(t, err)
	res, err := f.Format(blk)
	require.NoError(t, err)
	require.Equal(t, format.Ignored, res.Kind)
}

func TestLineProtocolFormatterEmitsFieldsAndSkipsNull(t *testing.T) {
	schema := []coltype.Config{
		{Name: "v_int", Tag: coltype.Int},
		{Name: "v_str", Tag: coltype.VarChar, MaxLength: 16},
	}
	blk := buildBlock(t, schema, []pool.RowData{
		{Timestamp: 100, Columns: []any{int64(1), pool.NullColumn}},
	})

	f := NewLineProtocolFormatter(schema, nil, lineprotocol.Nanosecond)
	res, err := f.Format(blk)
	require.NoError(t, err)
	require.Equal(t, format.InsertPayload, res.Kind)

	payload, ok := res.Payload.([]TopicPayload)
	require.True(t, ok)
	require.Len(t, payload, 1)
	require.Contains(t, string(payload[0].Payload), "sensor_1 v_int=1i")
	require.NotContains(t, string(payload[0].Payload), "v_str")
}

func TestLineProtocolFormatterEmitsTags(t *testing.T) {
	schema := []coltype.Config{{Name: "temp", Tag: coltype.Float}}
	tagSchema := []coltype.Config{
		{Name: "region", Tag: coltype.VarChar, MaxLength: 16},
		{Name: "sensor_id", Tag: coltype.Int},
	}
	blk := buildBlock(t, schema, []pool.RowData{
		{Timestamp: 1609459200000, Columns: []any{float64(25.5)}},
	})
	tb := &blk.Tables[0]
	tb.TableName = "weather"
	tb.Tags = []any{"us-west", int64(1001)}

	f := NewLineProtocolFormatter(schema, tagSchema, lineprotocol.Millisecond)
	res, err := f.Format(blk)
	require.NoError(t, err)

	payload, ok := res.Payload.([]TopicPayload)
	require.True(t, ok)
	require.Len(t, payload, 1)
	require.Equal(t, "weather,region=us-west,sensor_id=1001 temp=25.5 1609459200000", string(payload[0].Payload))
}

func TestLineProtocolFormatterEscapesReservedCharacters(t *testing.T) {
	schema := []coltype.Config{{Name: "f", Tag: coltype.Float}}
	tagSchema := []coltype.Config{
		{Name: "region name", Tag: coltype.VarChar, MaxLength: 32},
		{Name: "k=a,b", Tag: coltype.VarChar, MaxLength: 32},
	}
	blk := buildBlock(t, schema, []pool.RowData{
		{Timestamp: 999, Columns: []any{float64(1.0)}},
	})
	tb := &blk.Tables[0]
	tb.TableName = "weather station"
	tb.Tags = []any{"north east", "a=b,c"}

	f := NewLineProtocolFormatter(schema, tagSchema, lineprotocol.Nanosecond)
	res, err := f.Format(blk)
	require.NoError(t, err)

	payload, ok := res.Payload.([]TopicPayload)
	require.True(t, ok)
	require.Len(t, payload, 1)
	require.Equal(t, `weather\ station,region\ name=north\ east,k\=a\,b=a\=b\,c f=1 999`, string(payload[0].Payload))
}
