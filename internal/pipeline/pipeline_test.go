package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taosdata/taosgen/internal/pool"
)

func TestSharedModeSingleLane(t *testing.T) {
	p, err := New(Shared, 4, 3)
	require.NoError(t, err)
	require.Equal(t, 1, p.Lanes())

	blk := &pool.Block{}
	require.NoError(t, p.Send(context.Background(), blk))

	got, err := p.Receive(context.Background(), 0)
	require.NoError(t, err)
	require.Same(t, blk, got)
}

func TestIndependentModeRoutesSameTableToSameLane(t *testing.T) {
	p, err := New(Independent, 4, 3)
	require.NoError(t, err)
	require.Equal(t, 3, p.Lanes())

	blk1 := &pool.Block{Tables: []pool.TableBlock{{TableName: "t0"}}, UsedTables: 1}
	blk2 := &pool.Block{Tables: []pool.TableBlock{{TableName: "t0"}}, UsedTables: 1}

	require.Equal(t, p.queueFor(blk1), p.queueFor(blk2))
}

func TestCloseUnblocksSend(t *testing.T) {
	p, err := New(Shared, 1, 1)
	require.NoError(t, err)
	require.NoError(t, p.Send(context.Background(), &pool.Block{})) // fill the single slot

	done := make(chan error, 1)
	go func() {
		done <- p.Send(context.Background(), &pool.Block{})
	}()

	time.Sleep(20 * time.Millisecond)
	p.Close()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Send did not unblock after Close")
	}
}
