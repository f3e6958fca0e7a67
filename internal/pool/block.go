// Package pool implements the column-oriented bulk memory pool: a set of
// pre-allocated, reusable blocks, each holding one TableBlock per table
// assigned to it, recycled through a blocking free-queue so producers never
// allocate on the hot path.
//
// The block/column layout mirrors the original MemoryPool's TableBlock and
// MemoryBlock structs (fixed-width columns in flat arrays, variable-length
// columns in an offset/length-indexed byte arena, a parallel null-flag
// array, and a dedicated timestamp array) adapted from pointer arithmetic
// over a raw malloc'd chunk to Go slices, and from a C++ bind-vector handed
// to a prepared statement to a typed ColumnView a sink encodes from
// directly.
package pool

import (
	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/coltype"
)

// RowData is one generated row: a timestamp plus one value per schema
// column, in declaration order. A nil entry in Columns means the column
// value is "none" for this row (omitted entirely, as opposed to an
// explicit SQL NULL, which is represented by the NullColumn sentinel).
type RowData struct {
	Timestamp int64
	Columns   []any
}

// NullColumn is the sentinel stored in RowData.Columns to request an
// explicit NULL be written for that column, distinct from "none" (nil),
// which sets both IsNone and IsNull for the cell.
var NullColumn = struct{ nullColumn bool }{}

// Column is the per-column storage region inside a TableBlock: either a
// flat fixed-width array or a var-length arena with parallel offset/length
// arrays, plus a null-flag array shared by both shapes.
type Column struct {
	Tag         coltype.Tag
	IsFixed     bool
	ElementSize int // fixed columns only
	MaxLength   int // var columns only

	Fixed []byte // len == maxRows*ElementSize, fixed columns only

	VarData        []byte  // append-only arena, var columns only
	VarOffsets     []int32 // per-row offset into VarData
	VarLengths     []int32 // per-row length in VarData
	varWriteOffset int

	// IsNull marks a cell as an explicit SQL NULL (present but valueless).
	// IsNone marks a cell as entirely absent from the source row (the
	// generator's none_ratio draw fired); formatters that support omitting
	// a key outright (JSON, line protocol) distinguish the two, while
	// formatters that must emit a slot per column either way (SQL inserts)
	// treat IsNone the same as IsNull.
	IsNull []bool
	IsNone []bool
}

func newColumn(cfg coltype.Config, maxRows int) (Column, error) {
	col := Column{Tag: cfg.Tag, IsNull: make([]bool, maxRows), IsNone: make([]bool, maxRows)}
	if cfg.Tag.IsVarLength() {
		col.MaxLength = cfg.MaxLength
		col.VarData = make([]byte, 0, maxRows*maxIntDefault(cfg.MaxLength, 32))
		col.VarOffsets = make([]int32, maxRows)
		col.VarLengths = make([]int32, maxRows)
		return col, nil
	}
	col.IsFixed = true
	col.ElementSize = cfg.Tag.FixedSizeBytes()
	col.Fixed = make([]byte, maxRows*col.ElementSize)
	return col, nil
}

func maxIntDefault(n, def int) int {
	if n > 0 {
		return n
	}
	return def
}

// TableBlock is one table's row storage inside a shared Block: a fixed
// capacity of rows, a parallel timestamp array, and one Column per schema
// column. Tags are not stored row-wise (every row of a table shares the
// same tag tuple); Tags instead holds a pointer to that table's registered
// tag-value tuple, set once per round alongside TableName rather than
// copied into every row the way schema columns are.
type TableBlock struct {
	TableName string
	Tags      []any // tag values in tag-schema order, shared across every row

	Timestamps []int64
	UsedRows   int
	MaxRows    int

	Columns  []Column
	Handlers []coltype.Handler
}

func newTableBlock(maxRows int, schema []coltype.Config, handlers []coltype.Handler) (TableBlock, error) {
	tb := TableBlock{
		Timestamps: make([]int64, maxRows),
		MaxRows:    maxRows,
		Columns:    make([]Column, len(schema)),
		Handlers:   handlers,
	}
	for i, cfg := range schema {
		col, err := newColumn(cfg, maxRows)
		if err != nil {
			return TableBlock{}, err
		}
		tb.Columns[i] = col
	}
	return tb, nil
}

// AddRow appends a single row to the table block. It returns
// ErrBlockFull if the block has no remaining row capacity.
func (tb *TableBlock) AddRow(row RowData) error {
	if tb.UsedRows >= tb.MaxRows {
		return ErrBlockFull
	}
	if len(row.Columns) != len(tb.Columns) {
		return errors.Newf("pool: row has %d columns, table block expects %d", len(row.Columns), len(tb.Columns))
	}

	idx := tb.UsedRows
	tb.Timestamps[idx] = row.Timestamp

	for i := range tb.Columns {
		col := &tb.Columns[i]
		value := row.Columns[i]

		if value == nil {
			col.IsNone[idx] = true
			col.IsNull[idx] = true
			continue
		}
		if value == NullColumn {
			col.IsNone[idx] = false
			col.IsNull[idx] = true
			continue
		}
		col.IsNone[idx] = false
		col.IsNull[idx] = false

		h := tb.Handlers[i]
		if col.IsFixed {
			dest := col.Fixed[idx*col.ElementSize : (idx+1)*col.ElementSize]
			if err := h.ToFixed(dest, value); err != nil {
				return errors.Wrapf(err, "pool: encoding column %d row %d", i, idx)
			}
			continue
		}

		enc, err := h.ToVar(col.MaxLength, value)
		if err != nil {
			return errors.Wrapf(err, "pool: encoding column %d row %d", i, idx)
		}
		col.VarOffsets[idx] = int32(col.varWriteOffset)
		col.VarLengths[idx] = int32(len(enc))
		col.VarData = append(col.VarData, enc...)
		col.varWriteOffset += len(enc)
	}

	tb.UsedRows++
	return nil
}

// AddRows appends rows in bulk, one row at a time through AddRow, failing
// the whole call (with no
// partial rows committed beyond what AddRow itself already wrote) if
// capacity runs out partway through.
func (tb *TableBlock) AddRows(rows []RowData) error {
	for _, r := range rows {
		if err := tb.AddRow(r); err != nil {
			return err
		}
	}
	return nil
}

// reset clears row state for reuse without freeing the underlying arrays,
// matching the original's "no need to clear data, will be overwritten
// later" comment: only counters and the var-arena write cursor reset.
func (tb *TableBlock) reset() {
	tb.UsedRows = 0
	for i := range tb.Columns {
		tb.Columns[i].VarData = tb.Columns[i].VarData[:0]
		tb.Columns[i].varWriteOffset = 0
	}
}
