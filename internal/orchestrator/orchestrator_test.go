package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/genrow"
	"github.com/taosdata/taosgen/internal/pipeline"
	"github.com/taosdata/taosgen/internal/pool"
	"github.com/taosdata/taosgen/internal/sink"
)

type recordingConnector struct {
	mu   sync.Mutex
	rows int
}

func (c *recordingConnector) Connect(ctx context.Context) error { return nil }

func (c *recordingConnector) Execute(ctx context.Context, result format.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows += result.TotalRows
	return nil
}

func (c *recordingConnector) IsValid() bool { return true }
func (c *recordingConnector) ResetState()   {}
func (c *recordingConnector) Close() error  { return nil }

func baseConfig(t *testing.T, factory sink.Factory) Config {
	t.Helper()
	schema := []coltype.Config{{Name: "v_int", Tag: coltype.Int}}
	columns := []genrow.ColumnConfig{
		{Column: schema[0], GenType: genrow.GenOrder, OrderMin: 0, OrderMax: 1000},
	}

	return Config{
		Schema:            schema,
		Columns:           columns,
		Timestamp:         genrow.TimestampConfig{Precision: "ms", Step: 1, StartTimestamp: 1000},
		TableNames:        []string{"t0", "t1", "t2"},
		RowsPerTable:      10,
		InterlaceRows:     5,
		GenerateThreads:   2,
		InsertThreads:     2,
		QueueDepth:        4,
		PipelineMode:      pipeline.Shared,
		BlockCount:        4,
		MaxTablesPerBlock: 3,
		MaxRowsPerTable:   5,
		Formatter:         format.FormatterFunc(func(blk *pool.Block) (format.Result, error) { return format.StatementResult(blk, "INSERT"), nil }),
		SinkFactory:       factory,
		SinkPool:          sink.PoolConfig{MinSize: 1, MaxSize: 2, ConnectionTimeout: time.Second},
		Writer:            sink.WriterConfig{MaxAttempts: 2, BaseBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond},
		OnFailure:         OnFailureExit,
	}
}

func TestOrchestratorRunWritesAllRows(t *testing.T) {
	conn := &recordingConnector{}
	factory := func(ctx context.Context) (sink.Connector, error) { return conn, nil }

	o, err := New(context.Background(), baseConfig(t, factory))
	require.NoError(t, err)

	stats, err := o.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(30), stats.RowsGenerated) // 3 tables * 10 rows
	require.Equal(t, int64(30), int64(conn.rows))
}

func TestOrchestratorRejectsEmptyTableList(t *testing.T) {
	cfg := baseConfig(t, func(ctx context.Context) (sink.Connector, error) { return &recordingConnector{}, nil })
	cfg.TableNames = nil
	_, err := New(context.Background(), cfg)
	require.Error(t, err)
}

func TestPartitionTablesDistributesRoundRobin(t *testing.T) {
	groups := partitionTables([]string{"a", "b", "c", "d", "e"}, 2)
	require.Equal(t, [][]string{{"a", "c", "e"}, {"b", "d"}}, groups)
}
