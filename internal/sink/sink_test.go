package sink

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/pool"
)

var errTransient = errors.New("transient failure")

type fakeConnector struct {
	valid      bool
	executeErr error
	executions int32
	closed     int32
}

func (f *fakeConnector) Connect(ctx context.Context) error { return nil }

func (f *fakeConnector) Execute(ctx context.Context, result format.Result) error {
	atomic.AddInt32(&f.executions, 1)
	return f.executeErr
}

func (f *fakeConnector) IsValid() bool { return f.valid }
func (f *fakeConnector) ResetState()   {}
func (f *fakeConnector) Close() error {
	atomic.AddInt32(&f.closed, 1)
	return nil
}

func newFakeFactory() (Factory, *int32) {
	var created int32
	return func(ctx context.Context) (Connector, error) {
		atomic.AddInt32(&created, 1)
		return &fakeConnector{valid: true}, nil
	}, &created
}

func testBlock(t *testing.T) *pool.Block {
	t.Helper()
	schema := []coltype.Config{{Name: "v", Tag: coltype.Int}}
	p, err := pool.New(pool.Config{BlockCount: 1, MaxTablesPerBlock: 1, MaxRowsPerTable: 1, Schema: schema})
	require.NoError(t, err)
	blk, err := p.Acquire(context.Background())
	require.NoError(t, err)
	tb := blk.TableBlock(0)
	tb.TableName = "t0"
	require.NoError(t, tb.AddRow(pool.RowData{Timestamp: 1, Columns: []any{int64(1)}}))
	blk.Finalize()
	return blk
}

func TestPoolAcquireReleaseRoundTrip(t *testing.T) {
	factory, created := newFakeFactory()
	p, err := NewPool(context.Background(), PoolConfig{MinSize: 1, MaxSize: 2, ConnectionTimeout: time.Second}, factory)
	require.NoError(t, err)
	require.EqualValues(t, 1, atomic.LoadInt32(created))

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)
	p.Release(conn)

	conn2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, conn, conn2)
}

func TestPoolGrowsUpToMaxSize(t *testing.T) {
	factory, created := newFakeFactory()
	p, err := NewPool(context.Background(), PoolConfig{MinSize: 0, MaxSize: 2, ConnectionTimeout: 50 * time.Millisecond}, factory)
	require.NoError(t, err)

	c1, err := p.Acquire(context.Background())
	require.NoError(t, err)
	c2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, atomic.LoadInt32(created))

	_, err = p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrAcquireTimeout)

	p.Release(c1)
	p.Release(c2)
}

func TestPoolAcquireAfterCloseFails(t *testing.T) {
	factory, _ := newFakeFactory()
	p, err := NewPool(context.Background(), PoolConfig{MinSize: 1, MaxSize: 1, ConnectionTimeout: time.Second}, factory)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrPoolClosed)
}

func TestPoolReplacesInvalidConnector(t *testing.T) {
	var created int32
	factory := func(ctx context.Context) (Connector, error) {
		n := atomic.AddInt32(&created, 1)
		return &fakeConnector{valid: n > 1}, nil
	}
	p, err := NewPool(context.Background(), PoolConfig{MinSize: 1, MaxSize: 1, ConnectionTimeout: time.Second}, factory)
	require.NoError(t, err)

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.True(t, conn.IsValid())
}

func TestWriterRetriesThenSucceeds(t *testing.T) {
	calls := 0
	factory := func(ctx context.Context) (Connector, error) {
		calls++
		var execErr error
		if calls == 1 {
			execErr = errTransient
		}
		return &fakeConnector{valid: true, executeErr: execErr}, nil
	}
	p, err := NewPool(context.Background(), PoolConfig{MinSize: 0, MaxSize: 1, ConnectionTimeout: time.Second}, factory)
	require.NoError(t, err)

	w := NewWriter(p, WriterConfig{MaxAttempts: 3, BaseBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond}, zerolog.Nop())
	err = w.Write(context.Background(), format.StatementResult(testBlock(t), "INSERT INTO x VALUES (1)"))
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestWriterIgnoresEmptyResult(t *testing.T) {
	factory, created := newFakeFactory()
	p, err := NewPool(context.Background(), PoolConfig{MinSize: 0, MaxSize: 1, ConnectionTimeout: time.Second}, factory)
	require.NoError(t, err)

	w := NewWriter(p, WriterConfig{}, zerolog.Nop())
	require.NoError(t, w.Write(context.Background(), format.IgnoredResult()))
	require.EqualValues(t, 0, atomic.LoadInt32(created))
}
