package tdengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/format/stmtfmt"
	"github.com/taosdata/taosgen/internal/pool"
)

func TestBindArgsForRowSubTable(t *testing.T) {
	schema := []coltype.Config{{Name: "v_int", Tag: coltype.Int}}
	p, err := pool.New(pool.Config{BlockCount: 1, MaxTablesPerBlock: 1, MaxRowsPerTable: 1, Schema: schema})
	require.NoError(t, err)
	blk, err := p.Acquire(context.Background())
	require.NoError(t, err)
	tb := blk.TableBlock(0)
	tb.TableName = "t0"
	require.NoError(t, tb.AddRow(pool.RowData{Timestamp: 100, Columns: []any{int64(7)}}))
	blk.Finalize()

	payload := &stmtfmt.BindPayload{Mode: format.SubTable, Schema: schema, Block: blk}
	args, err := bindArgsForRow(payload, tb, 0)
	require.NoError(t, err)
	require.Equal(t, []any{"t0", int64(100), int64(7)}, args)
}

func TestBindArgsForRowNullColumn(t *testing.T) {
	schema := []coltype.Config{{Name: "v_int", Tag: coltype.Int}}
	p, err := pool.New(pool.Config{BlockCount: 1, MaxTablesPerBlock: 1, MaxRowsPerTable: 1, Schema: schema})
	require.NoError(t, err)
	blk, err := p.Acquire(context.Background())
	require.NoError(t, err)
	tb := blk.TableBlock(0)
	tb.TableName = "t0"
	require.NoError(t, tb.AddRow(pool.RowData{Timestamp: 1, Columns: []any{pool.NullColumn}}))
	blk.Finalize()

	payload := &stmtfmt.BindPayload{Mode: format.SubTable, Schema: schema, Block: blk}
	args, err := bindArgsForRow(payload, tb, 0)
	require.NoError(t, err)
	require.Nil(t, args[2])
}

func TestRESTConnectorIsAStub(t *testing.T) {
	c := NewREST(Config{})
	require.ErrorIs(t, c.Connect(context.Background()), coltype.ErrNotImplemented)
	require.False(t, c.IsValid())
}
