// Package tabledata implements the table-data manager: it schedules row
// generation across many tables into memory-pool blocks in round-robin
// ("interlace") order, tracks each table's rows-generated quota, and
// applies a rate limiter across the whole manager's output.
//
// Grounded on original_source's TableDataManager.hpp: the same TableState
// (table name, generator, rows_generated, interlace_counter, completed)
// and the same acquire-block / round-robin-fill / release-to-caller shape,
// translated from a pointer-returning next_multi_batch() to a (*Block,
// error) pair idiomatic for Go, with ErrDone marking the end.
package tabledata

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/genrow"
	"github.com/taosdata/taosgen/internal/pool"
	"github.com/taosdata/taosgen/internal/ratelimit"
)

// ErrDone is returned by NextBlock once every table has generated its full
// row quota.
var ErrDone = errors.New("tabledata: all tables completed")

// TableState tracks one table's generation progress, mirroring
// TableDataManager::TableState.
type TableState struct {
	TableName        string
	Generator        *genrow.RowGenerator
	RowsGenerated    int64
	InterlaceCounter int64
	Completed        bool

	rowsQuota int64
}

// Config configures a Manager's scheduling behavior.
type Config struct {
	// RowsPerTable is the quota each table generates before being marked
	// completed. Zero means unlimited (generation runs until the caller
	// stops calling NextBlock).
	RowsPerTable int64

	// InterlaceRows is how many consecutive rows a table contributes per
	// round before control moves to the next active table. 1 means pure
	// round-robin (the common "interlace" case); larger values trade
	// table interleaving granularity for fewer generator-switch costs.
	InterlaceRows int64

	// RowsPerBatch caps the total rows a single NextBlock call may fill
	// across every table, matching TableDataManager::next_batch's "loop
	// until total_rows >= rows_per_batch" exit condition. Zero means
	// unbounded (a block fills until it runs out of table slots instead).
	RowsPerBatch int64

	// RatePerSecond bounds total rows/sec across all tables. Zero means
	// unlimited.
	RatePerSecond float64
}

// Manager drives row generation for a fixed set of tables into blocks
// drawn from a shared pool.Pool.
type Manager struct {
	pool    *pool.Pool
	states  []*TableState
	current int
	active  int

	interlaceRows int64
	rowsPerBatch  int64
	limiter       *ratelimit.Bucket

	totalRowsGenerated int64
}

// New builds a Manager over the given pool and one RowGenerator per table.
func New(p *pool.Pool, cfg Config, generators map[string]*genrow.RowGenerator) (*Manager, error) {
	if len(generators) == 0 {
		return nil, errors.Newf("tabledata: at least one table generator is required")
	}
	interlace := cfg.InterlaceRows
	if interlace <= 0 {
		interlace = 1
	}
	if cfg.RowsPerBatch > 0 && interlace > cfg.RowsPerBatch {
		return nil, errors.Newf("tabledata: interlace_rows (%d) must not exceed rows_per_batch (%d)", interlace, cfg.RowsPerBatch)
	}

	m := &Manager{
		pool:          p,
		interlaceRows: interlace,
		rowsPerBatch:  cfg.RowsPerBatch,
		limiter:       ratelimit.New(cfg.RatePerSecond, cfg.RatePerSecond),
	}
	for name, gen := range generators {
		m.states = append(m.states, &TableState{
			TableName: name,
			Generator: gen,
			rowsQuota: cfg.RowsPerTable,
		})
	}
	m.active = len(m.states)
	return m, nil
}

// HasMore reports whether any table still has rows left to generate.
func (m *Manager) HasMore() bool { return m.active > 0 }

// TotalRowsGenerated returns the running total of rows produced so far.
func (m *Manager) TotalRowsGenerated() int64 { return m.totalRowsGenerated }

// NextBlock acquires a block from the pool and fills it with one round of
// interlaced rows from every still-active table, respecting each table's
// remaining quota and the manager's rate limiter. It returns ErrDone once
// every table has completed.
func (m *Manager) NextBlock(ctx context.Context) (*pool.Block, error) {
	if !m.HasMore() {
		return nil, ErrDone
	}

	blk, err := m.pool.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "tabledata: acquiring block")
	}

	maxTables := len(blk.Tables)
	slot := 0
	visited := 0
	var batchRows int64

	for slot < maxTables && visited < len(m.states) {
		if m.rowsPerBatch > 0 && batchRows >= m.rowsPerBatch {
			break
		}

		state := m.nextActiveTable()
		if state == nil {
			break
		}
		visited++

		tb := blk.TableBlock(slot)
		n := m.calculateRowsToGenerate(state, tb, batchRows)
		if n <= 0 {
			continue
		}
		if err := m.limiter.Take(ctx, float64(n)); err != nil {
			blk.Release()
			return nil, errors.Wrap(err, "tabledata: rate limiter")
		}

		tb.TableName = state.TableName
		tb.Tags = state.Generator.Tags
		startIdx := int(state.RowsGenerated)
		for i := 0; i < n; i++ {
			row, err := state.Generator.Generate(startIdx + i)
			if err != nil {
				blk.Release()
				return nil, errors.Wrapf(err, "tabledata: generating row for table %q", state.TableName)
			}
			if err := tb.AddRow(row); err != nil {
				blk.Release()
				return nil, errors.Wrapf(err, "tabledata: adding row for table %q", state.TableName)
			}
		}

		state.RowsGenerated += int64(n)
		state.InterlaceCounter += int64(n)
		m.totalRowsGenerated += int64(n)
		batchRows += int64(n)
		if state.rowsQuota > 0 && state.RowsGenerated >= state.rowsQuota {
			state.Completed = true
			m.active--
		}

		slot++
	}

	if blk.UsedTables == 0 {
		blk.Release()
		return nil, ErrDone
	}

	blk.Finalize()
	return blk, nil
}

// calculateRowsToGenerate computes rows_to_generate = min(interlace_rows,
// rows_per_table - rows_generated, table_block.max_rows, batch_budget),
// matching TableDataManager::calculate_rows_to_generate.
func (m *Manager) calculateRowsToGenerate(state *TableState, tb *pool.TableBlock, batchRows int64) int {
	n := m.interlaceRows
	if state.rowsQuota > 0 {
		remaining := state.rowsQuota - state.RowsGenerated
		if remaining < n {
			n = remaining
		}
	}
	if int64(tb.MaxRows) < n {
		n = int64(tb.MaxRows)
	}
	if m.rowsPerBatch > 0 {
		budget := m.rowsPerBatch - batchRows
		if budget < n {
			n = budget
		}
	}
	if n < 0 {
		n = 0
	}
	return int(n)
}

// nextActiveTable returns the next table in round-robin order that has not
// completed, advancing the cursor, or nil if none remain.
func (m *Manager) nextActiveTable() *TableState {
	n := len(m.states)
	for i := 0; i < n; i++ {
		idx := (m.current + i) % n
		if !m.states[idx].Completed {
			m.current = (idx + 1) % n
			return m.states[idx]
		}
	}
	return nil
}

// TableStates returns the manager's per-table progress snapshots.
func (m *Manager) TableStates() []*TableState { return m.states }
