// Package orchestrator wires the memory pool, row generators, pipeline,
// formatter, and sink writer into one insert-data run: spawn producers
// and writers, name tables, enforce a global stop flag, and emit
// checkpoints, matching original_source's InsertWorker/TDEngineDatabase
// startup sequence generalized behind this repo's own component
// boundaries.
//
// Concurrency glue is golang.org/x/sync/errgroup, the same module the
// teacher's internal/start package already depends on (there used for a
// single daemon goroutine group; here generalized to the producer+writer
// goroutine group a run actually needs).
package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/taosdata/taosgen/internal/checkpoint"
	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/genrow"
	"github.com/taosdata/taosgen/internal/pipeline"
	"github.com/taosdata/taosgen/internal/pool"
	"github.com/taosdata/taosgen/internal/sink"
	"github.com/taosdata/taosgen/internal/tabledata"
)

// FailurePolicy selects what a writer does once its retry budget is
// exhausted, matching spec.md §4.G step 4's on_failure knob.
type FailurePolicy string

const (
	// OnFailureExit sets the global stop flag and surfaces the error as
	// the run's result, matching on_failure=="exit".
	OnFailureExit FailurePolicy = "exit"

	// OnFailureSkip logs the error, releases the block, and continues,
	// matching on_failure=="skip".
	OnFailureSkip FailurePolicy = "skip"
)

// Config is one insert-data job step's fully resolved configuration.
type Config struct {
	// Schema and Columns describe the data columns only (the timestamp
	// column is handled separately by Timestamp below, matching how
	// pool.Config and genrow.NewRowGenerator split the two).
	Schema    []coltype.Config
	Columns   []genrow.ColumnConfig
	Timestamp genrow.TimestampConfig

	// Tags describes the tag schema/generators shared by every table this
	// run produces rows for; empty for insert targets with no tags
	// (ordinary tables, as opposed to AutoCreateTable's tag-bearing
	// sub-tables of a super table).
	Tags []genrow.ColumnConfig

	// TableNames lists every table this run generates rows for; it is
	// split across GenerateThreads producers.
	TableNames []string

	RowsPerTable  int64
	InterlaceRows int64
	RowsPerBatch  int64
	RatePerSecond float64

	// DisorderIntervals configures out-of-order timestamp injection; nil
	// or empty disables it entirely (matching data_disorder.enabled==false).
	DisorderIntervals []genrow.DisorderIntervalConfig

	GenerateThreads int
	InsertThreads   int
	QueueDepth      int
	PipelineMode    pipeline.Mode

	BlockCount        int
	MaxTablesPerBlock int
	MaxRowsPerTable   int

	Formatter format.Formatter

	SinkFactory sink.Factory
	SinkPool    sink.PoolConfig
	Writer      sink.WriterConfig

	OnFailure FailurePolicy

	// Checkpoint, if non-nil, is committed to after every successfully
	// written block and consulted at startup to skip already-ingested
	// rows (step 8 of spec.md §4.H).
	Checkpoint      *checkpoint.Store
	CheckpointEvery int

	Seed int64

	Log zerolog.Logger
}

func (c Config) validate() error {
	if len(c.TableNames) == 0 {
		return errors.New("orchestrator: at least one table name is required")
	}
	if c.Formatter == nil {
		return errors.New("orchestrator: a formatter is required")
	}
	if c.SinkFactory == nil {
		return errors.New("orchestrator: a sink factory is required")
	}
	if c.GenerateThreads <= 0 {
		return errors.New("orchestrator: generate_threads must be positive")
	}
	if c.InsertThreads <= 0 {
		return errors.New("orchestrator: insert_threads must be positive")
	}
	return nil
}

// Stats summarizes one Run's outcome, mirroring BaseInsertData's
// bookkeeping surfaced up through the orchestrator.
type Stats struct {
	RowsGenerated int64
	BlocksWritten int64
}

// Orchestrator drives one insert-data run end to end.
type Orchestrator struct {
	cfg Config

	pool     *pool.Pool
	pipeline *pipeline.Pipeline
	sinkPool *sink.Pool
	writer   *sink.Writer
	disorder *genrow.DisorderInjector

	stop   atomic.Bool
	stats  Stats
	statMu sync.Mutex

	checkpointMu sync.Mutex
}

// New validates cfg and allocates the pool, pipeline, and sink pool a Run
// will use. The returned Orchestrator's resources are released by Run
// (normal or error return) or by calling Close directly if Run is never
// invoked.
func New(ctx context.Context, cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	blockRows := cfg.InterlaceRows
	if blockRows <= 0 {
		blockRows = 1
	}
	if cfg.RowsPerBatch > blockRows {
		blockRows = cfg.RowsPerBatch
	}
	maxRows := cfg.MaxRowsPerTable
	if maxRows < int(blockRows) {
		maxRows = int(blockRows)
	}

	p, err := pool.New(pool.Config{
		BlockCount:        cfg.BlockCount,
		MaxTablesPerBlock: cfg.MaxTablesPerBlock,
		MaxRowsPerTable:   maxRows,
		Schema:            cfg.Schema,
	})
	if err != nil {
		return nil, errors.Wrap(err, "orchestrator: building memory pool")
	}

	pl, err := pipeline.New(cfg.PipelineMode, cfg.QueueDepth, cfg.InsertThreads)
	if err != nil {
		p.Close()
		return nil, errors.Wrap(err, "orchestrator: building pipeline")
	}

	sp, err := sink.NewPool(ctx, cfg.SinkPool, cfg.SinkFactory)
	if err != nil {
		p.Close()
		pl.Close()
		return nil, errors.Wrap(err, "orchestrator: building sink pool")
	}

	disorder, err := genrow.NewDisorderInjector(cfg.DisorderIntervals, cfg.Timestamp.Precision)
	if err != nil {
		p.Close()
		pl.Close()
		_ = sp.Close()
		return nil, errors.Wrap(err, "orchestrator: building disorder injector")
	}

	return &Orchestrator{
		cfg:      cfg,
		pool:     p,
		pipeline: pl,
		sinkPool: sp,
		writer:   sink.NewWriter(sp, cfg.Writer, cfg.Log),
		disorder: disorder,
	}, nil
}

// Run spawns GenerateThreads producers and InsertThreads consumers,
// waits for every producer to finish and every consumer to drain, and
// returns the first fatal error from any goroutine, matching spec.md
// §4.H steps 10-11 and the stop-flag semantics of §5.
func (o *Orchestrator) Run(ctx context.Context) (Stats, error) {
	group, gctx := errgroup.WithContext(ctx)

	var producers sync.WaitGroup
	groups := partitionTables(o.cfg.TableNames, o.cfg.GenerateThreads)
	for producerIdx, tables := range groups {
		producerIdx, tables := producerIdx, tables
		if len(tables) == 0 {
			continue
		}
		producers.Add(1)
		group.Go(func() error {
			defer producers.Done()
			return o.produce(gctx, producerIdx, tables)
		})
	}

	// Once every producer has returned, close the pipeline so consumers
	// drain the blocks still queued and then see ErrClosed.
	pipelineClosed := make(chan struct{})
	go func() {
		producers.Wait()
		o.pipeline.Close()
		close(pipelineClosed)
	}()

	for lane := 0; lane < o.pipeline.Lanes(); lane++ {
		lane := lane
		group.Go(func() error {
			return o.consume(gctx, lane)
		})
	}

	err := group.Wait()
	<-pipelineClosed

	o.statMu.Lock()
	stats := o.stats
	o.statMu.Unlock()
	return stats, err
}

// Close releases every resource Run would otherwise release, for a
// caller that built an Orchestrator but never called Run.
func (o *Orchestrator) Close() {
	o.pool.Close()
	_ = o.sinkPool.Close()
}

func (o *Orchestrator) produce(ctx context.Context, producerIdx int, tableNames []string) error {
	generators := make(map[string]*genrow.RowGenerator, len(tableNames))
	for i, name := range tableNames {
		seed := o.cfg.Seed + int64(producerIdx)*1_000_003 + int64(i)
		rg, err := genrow.NewRowGenerator(name, o.cfg.Timestamp, o.cfg.Columns, o.cfg.Tags, seed, o.disorder)
		if err != nil {
			return errors.Wrapf(err, "orchestrator: building generator for table %q", name)
		}
		if o.cfg.Checkpoint != nil {
			if lastTS, ok := o.cfg.Checkpoint.Latest[name]; ok {
				rg.Timestamp.SkipTo(lastTS)
			}
		}
		generators[name] = rg
	}

	manager, err := tabledata.New(o.pool, tabledata.Config{
		RowsPerTable:  o.cfg.RowsPerTable,
		InterlaceRows: o.cfg.InterlaceRows,
		RowsPerBatch:  o.cfg.RowsPerBatch,
		RatePerSecond: o.cfg.RatePerSecond / float64(o.cfg.GenerateThreads),
	}, generators)
	if err != nil {
		return errors.Wrap(err, "orchestrator: building table-data manager")
	}

	for manager.HasMore() {
		if o.stop.Load() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		blk, err := manager.NextBlock(ctx)
		if errors.Is(err, tabledata.ErrDone) {
			break
		}
		if err != nil {
			o.stop.Store(true)
			return errors.Wrap(err, "orchestrator: generating block")
		}

		if err := o.pipeline.Send(ctx, blk); err != nil {
			return errors.Wrap(err, "orchestrator: sending block to pipeline")
		}
	}

	o.statMu.Lock()
	o.stats.RowsGenerated += manager.TotalRowsGenerated()
	o.statMu.Unlock()
	return nil
}

func (o *Orchestrator) consume(ctx context.Context, lane int) error {
	for {
		if o.stop.Load() {
			return nil
		}

		blk, err := o.pipeline.Receive(ctx, lane)
		if errors.Is(err, pipeline.ErrClosed) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "orchestrator: receiving block from pipeline")
		}

		result, err := o.cfg.Formatter.Format(blk)
		if err != nil {
			blk.Release()
			o.stop.Store(true)
			return errors.Wrap(err, "orchestrator: formatting block")
		}

		writeErr := o.writer.Write(ctx, result)
		if writeErr != nil {
			if o.cfg.OnFailure == OnFailureSkip {
				o.cfg.Log.Warn().Err(writeErr).Msg("orchestrator: skipping block after exhausted retries")
				blk.Release()
				continue
			}
			o.stop.Store(true)
			blk.Release()
			return errors.Wrap(writeErr, "orchestrator: writing block")
		}

		o.commitCheckpoint(blk)

		o.statMu.Lock()
		o.stats.BlocksWritten++
		o.statMu.Unlock()

		blk.Release()
	}
}

func (o *Orchestrator) commitCheckpoint(blk *pool.Block) {
	if o.cfg.Checkpoint == nil {
		return
	}

	o.checkpointMu.Lock()
	defer o.checkpointMu.Unlock()

	for i := 0; i < blk.UsedTables; i++ {
		tb := &blk.Tables[i]
		if tb.UsedRows == 0 {
			continue
		}
		lastTS := tb.Timestamps[tb.UsedRows-1]
		if err := o.cfg.Checkpoint.Commit(tb.TableName, lastTS); err != nil {
			o.cfg.Log.Error().Err(err).Str("table", tb.TableName).Msg("orchestrator: checkpoint commit failed")
		}
	}
}

// partitionTables splits names into n roughly-equal, order-preserving
// groups, matching spec.md §4.H step 3 ("split the table list across
// generate_threads producers").
func partitionTables(names []string, n int) [][]string {
	groups := make([][]string, n)
	for i, name := range names {
		idx := i % n
		groups[idx] = append(groups[idx], name)
	}
	return groups
}
