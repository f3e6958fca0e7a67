package pool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taosdata/taosgen/internal/coltype"
)

func testSchema() []coltype.Config {
	return []coltype.Config{
		{Name: "v_int", Tag: coltype.Int},
		{Name: "v_str", Tag: coltype.VarChar, MaxLength: 32},
	}
}

func TestPoolAcquireReleaseRoundTrip(t *testing.T) {
	p, err := New(Config{
		BlockCount:        2,
		MaxTablesPerBlock: 1,
		MaxRowsPerTable:   4,
		Schema:            testSchema(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	blk, err := p.Acquire(ctx)
	require.NoError(t, err)

	tb := blk.TableBlock(0)
	tb.TableName = "t0"
	require.NoError(t, tb.AddRow(RowData{Timestamp: 100, Columns: []any{int64(1), "hello"}}))
	require.NoError(t, tb.AddRow(RowData{Timestamp: 200, Columns: []any{int64(2), "world"}}))

	blk.Finalize()
	require.Equal(t, 2, blk.TotalRows)
	require.Equal(t, int64(100), blk.StartTime)
	require.Equal(t, int64(200), blk.EndTime)

	blk.Release()

	blk2, err := p.Acquire(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, blk2.TableBlock(0).UsedRows)
}

func TestTableBlockRejectsOverCapacity(t *testing.T) {
	p, err := New(Config{
		BlockCount:        1,
		MaxTablesPerBlock: 1,
		MaxRowsPerTable:   1,
		Schema:            testSchema(),
	})
	require.NoError(t, err)

	blk, err := p.Acquire(context.Background())
	require.NoError(t, err)

	tb := blk.TableBlock(0)
	require.NoError(t, tb.AddRow(RowData{Timestamp: 1, Columns: []any{int64(1), "a"}}))
	require.ErrorIs(t, tb.AddRow(RowData{Timestamp: 2, Columns: []any{int64(2), "b"}}), ErrBlockFull)
}

func TestTableBlockNullColumn(t *testing.T) {
	p, err := New(Config{
		BlockCount:        1,
		MaxTablesPerBlock: 1,
		MaxRowsPerTable:   1,
		Schema:            testSchema(),
	})
	require.NoError(t, err)

	blk, err := p.Acquire(context.Background())
	require.NoError(t, err)

	tb := blk.TableBlock(0)
	require.NoError(t, tb.AddRow(RowData{Timestamp: 1, Columns: []any{nil, "a"}}))
	require.True(t, tb.Columns[0].IsNull[0])
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	p, err := New(Config{
		BlockCount:        1,
		MaxTablesPerBlock: 1,
		MaxRowsPerTable:   1,
		Schema:            testSchema(),
	})
	require.NoError(t, err)

	ctx := context.Background()
	blk, err := p.Acquire(ctx)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		b2, err := p.Acquire(ctx)
		require.NoError(t, err)
		require.Same(t, blk, b2)
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second Acquire returned before Release")
	case <-time.After(50 * time.Millisecond):
	}

	blk.Release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Acquire did not unblock after Release")
	}
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	p, err := New(Config{
		BlockCount:        1,
		MaxTablesPerBlock: 1,
		MaxRowsPerTable:   1,
		Schema:            testSchema(),
	})
	require.NoError(t, err)

	_, err = p.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	require.Error(t, err)
}

func TestPoolCloseUnblocksAcquire(t *testing.T) {
	p, err := New(Config{
		BlockCount:        1,
		MaxTablesPerBlock: 1,
		MaxRowsPerTable:   1,
		Schema:            testSchema(),
	})
	require.NoError(t, err)

	_, err = p.Acquire(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := p.Acquire(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	p.Close()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrPoolClosed)
	case <-time.After(time.Second):
		t.Fatal("Acquire did not unblock after Close")
	}
}
