package sqlfmt

import (
	"context"
	"testing"

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
	tb.TableName = "t0"
	for _, r := range rows {
		require.NoError(t, tb.AddRow(r))
	}
	blk.Finalize()
	return blk
}

func TestFormatEmitsInsertStatement(t *testing.T) {
	schema := []coltype.Config{
		{Name: "v_int", Tag: coltype.Int},
		{Name: "v_str", Tag: coltype.VarChar, MaxLength: 16},
	}
	blk := buildBlock(t, schema, []pool.RowData{
		{Timestamp: 100, Columns: []any{int64(1), "a'b"}},
		{Timestamp: 200, Columns: []any{nil, "c"}},
	})

	f := New("testdb", schema, format.SubTable)
	res, err := f.Format(blk)
	require.NoError(t, err)
	require.Equal(t, format.StatementList, res.Kind)
	require.Len(t, res.Statements, 1)
	require.Contains(t, res.Statements[0], "INSERT INTO `testdb`.`t0` VALUES ")
	require.Contains(t, res.Statements[0], "(100,1,'a''b')")
	require.Contains(t, res.Statements[0], "(200,NULL,'c')")
}

func TestFormatRejectsVarbinary(t *testing.T) {
	schema := []coltype.Config{{Name: "v", Tag: coltype.VarBinary, MaxLength: 8}}
	blk := buildBlock(t, schema, []pool.RowData{{Timestamp: 1, Columns: []any{[]byte("x")}}})

	f := New("testdb", schema, format.SubTable)
	_, err := f.Format(blk)
	require.ErrorIs(t, err, coltype.ErrUnsupportedSQLType)
}

func TestFormatIgnoresEmptyBlock(t *testing.T) {
	schema := []coltype.Config{{Name: "v", Tag: coltype.Int}}
	p, err := pool.New(pool.Config{BlockCount: 1, MaxTablesPerBlock: 1, MaxRowsPerTable: 1, Schema: schema})
	require.NoError(t, err)
	blk, err := p.Acquire(context.Background())
	require.NoError(t, err)
	blk.Finalize()

	f := New("testdb", schema, format.SubTable)
	res, err := f.Format(blk)
	require.NoError(t, err)
	require.Equal(t, format.Ignored, res.Kind)
}
