package pool

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/coltype"
)

// ErrBlockFull is returned by TableBlock.AddRow/AddRows when a block has no
// remaining row capacity; callers release the block for formatting and
// acquire a fresh one rather than growing it, matching the original's
// fixed-capacity design.
var ErrBlockFull = errors.New("pool: table block is full")

// ErrPoolClosed is returned by Acquire/Release once Close has run.
var ErrPoolClosed = errors.New("pool: closed")

// Block is one unit handed out by Pool.Acquire: a fixed-size collection of
// TableBlocks (one per table assigned to it this round) plus the
// aggregate bookkeeping a formatter or sink needs to know how much of the
// block is actually populated. It corresponds to the original's
// MemoryBlock, minus the TDengine-specific bind-vector construction, which
// belongs to the tdengine sink connector, not the generic pool.
type Block struct {
	Tables     []TableBlock
	UsedTables int
	StartTime  int64
	EndTime    int64
	TotalRows  int

	pool *Pool
}

// TableBlock returns the i-th table's storage region, growing UsedTables
// if i is the next unused slot. Callers populate tables in order starting
// from index 0 each round.
func (b *Block) TableBlock(i int) *TableBlock {
	if i >= b.UsedTables {
		b.UsedTables = i + 1
	}
	return &b.Tables[i]
}

// Finalize recomputes the block's aggregate start/end time and total row
// count from its used tables. Call once a round of AddRow/AddRows calls
// across all assigned tables is complete, before handing the block to a
// formatter.
func (b *Block) Finalize() {
	b.StartTime = math.MaxInt64
	b.EndTime = math.MinInt64
	b.TotalRows = 0
	for i := 0; i < b.UsedTables; i++ {
		tb := &b.Tables[i]
		b.TotalRows += tb.UsedRows
		for r := 0; r < tb.UsedRows; r++ {
			ts := tb.Timestamps[r]
			if ts < b.StartTime {
				b.StartTime = ts
			}
			if ts > b.EndTime {
				b.EndTime = ts
			}
		}
	}
}

// Release returns the block to its owning pool, resetting it for reuse.
// Safe to call exactly once per acquired block; calling it on a block not
// obtained from a Pool is a programmer error and panics.
func (b *Block) Release() {
	if b.pool == nil {
		panic("pool: Release called on a block with no owning pool")
	}
	b.pool.releaseBlock(b)
}

func (b *Block) reset() {
	b.UsedTables = 0
	b.StartTime = 0
	b.EndTime = 0
	b.TotalRows = 0
	for i := range b.Tables {
		b.Tables[i].reset()
	}
}

// Pool is a fixed-size set of pre-allocated Blocks, recycled through a
// buffered channel acting as the blocking free-queue
// (moodycamel::BlockingConcurrentQueue in the original; a Go channel is
// the idiomatic MPMC equivalent and needs no additional library).
type Pool struct {
	blocks   []Block
	free     chan *Block
	closed   chan struct{}
	schema   []coltype.Config
	handlers []coltype.Handler
}

// Config describes how to size a new Pool.
type Config struct {
	BlockCount       int
	MaxTablesPerBlock int
	MaxRowsPerTable  int
	Schema           []coltype.Config
}

// New allocates blockCount blocks, each with maxTablesPerBlock TableBlocks
// of maxRowsPerTable row capacity, laid out per the given column schema,
// and seeds the free-queue with all of them.
func New(cfg Config) (*Pool, error) {
	if cfg.BlockCount <= 0 {
		return nil, errors.Newf("pool: block_count must be positive, got %d", cfg.BlockCount)
	}
	if cfg.MaxTablesPerBlock <= 0 {
		return nil, errors.Newf("pool: max_tables_per_block must be positive, got %d", cfg.MaxTablesPerBlock)
	}
	if cfg.MaxRowsPerTable <= 0 {
		return nil, errors.Newf("pool: max_rows_per_table must be positive, got %d", cfg.MaxRowsPerTable)
	}

	handlers := make([]coltype.Handler, len(cfg.Schema))
	for i, col := range cfg.Schema {
		h, err := coltype.HandlerFor(col)
		if err != nil {
			return nil, errors.Wrapf(err, "pool: building handler for column %q", col.Name)
		}
		handlers[i] = h
	}

	p := &Pool{
		blocks:   make([]Block, cfg.BlockCount),
		free:     make(chan *Block, cfg.BlockCount),
		closed:   make(chan struct{}),
		schema:   cfg.Schema,
		handlers: handlers,
	}

	for i := range p.blocks {
		blk := &p.blocks[i]
		blk.pool = p
		blk.Tables = make([]TableBlock, cfg.MaxTablesPerBlock)
		for t := range blk.Tables {
			tb, err := newTableBlock(cfg.MaxRowsPerTable, cfg.Schema, handlers)
			if err != nil {
				return nil, err
			}
			blk.Tables[t] = tb
		}
		p.free <- blk
	}

	return p, nil
}

// Acquire blocks until a free Block is available or ctx is cancelled.
func (p *Pool) Acquire(ctx context.Context) (*Block, error) {
	select {
	case <-p.closed:
		return nil, ErrPoolClosed
	default:
	}
	select {
	case blk := <-p.free:
		return blk, nil
	case <-p.closed:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "pool: acquire cancelled")
	}
}

func (p *Pool) releaseBlock(b *Block) {
	b.reset()
	select {
	case p.free <- b:
	case <-p.closed:
	}
}

// Close marks the pool closed; outstanding Acquire calls return
// ErrPoolClosed and future Release calls become no-ops. It does not wait
// for outstanding blocks to be returned.
func (p *Pool) Close() {
	select {
	case <-p.closed:
	default:
		close(p.closed)
	}
}

// Handlers returns the column handler table the pool built at
// construction, shared by every TableBlock it owns.
func (p *Pool) Handlers() []coltype.Handler { return p.handlers }

// Schema returns the column schema the pool was constructed with.
func (p *Pool) Schema() []coltype.Config { return p.schema }
