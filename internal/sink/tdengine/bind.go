package tdengine

import (
	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/format/stmtfmt"
	"github.com/taosdata/taosgen/internal/pool"
)

// bindArgsForRow builds the positional args for one row matching the
// three query shapes stmtfmt.buildQuery produces. AutoCreateTable mode
// binds tb.Tags (the table's registered tag tuple, generated once and
// shared across every row) in schema order ahead of the VALUES args,
// matching the TAGS(?,?,...) placeholder list stmtfmt sized from the
// same tag schema.
func bindArgsForRow(payload *stmtfmt.BindPayload, tb *pool.TableBlock, row int) ([]any, error) {
	cols, err := rowValues(payload.Schema, tb, row)
	if err != nil {
		return nil, err
	}

	switch payload.Mode {
	case format.SubTable:
		args := make([]any, 0, len(cols)+2)
		args = append(args, tb.TableName, tb.Timestamps[row])
		args = append(args, cols...)
		return args, nil

	case format.SuperTable:
		args := make([]any, 0, len(cols)+2)
		args = append(args, tb.TableName, tb.Timestamps[row])
		args = append(args, cols...)
		return args, nil

	case format.AutoCreateTable:
		if len(tb.Tags) != len(payload.Tags) {
			return nil, errors.Newf("tdengine: table %q has %d tag values, formatter expects %d",
				tb.TableName, len(tb.Tags), len(payload.Tags))
		}
		args := make([]any, 0, len(cols)+len(tb.Tags)+2)
		args = append(args, tb.TableName)
		args = append(args, tagArgs(tb.Tags)...)
		args = append(args, tb.Timestamps[row])
		args = append(args, cols...)
		return args, nil

	default:
		return nil, errors.Newf("tdengine: unsupported insert mode %v", payload.Mode)
	}
}

// tagArgs normalizes a table's tag tuple into bind-ready args: a nil
// element (none) or the pool.NullColumn sentinel (explicit NULL) both
// bind as a SQL NULL, since a tag column has no row-wise none/null
// distinction to preserve the way a schema column does.
func tagArgs(tags []any) []any {
	out := make([]any, len(tags))
	for i, v := range tags {
		if v == nil || v == pool.NullColumn {
			continue
		}
		out[i] = v
	}
	return out
}

func rowValues(schema []coltype.Config, tb *pool.TableBlock, row int) ([]any, error) {
	out := make([]any, len(schema))
	for i, cfg := range schema {
		col := &tb.Columns[i]
		if col.IsNull[row] {
			out[i] = nil
			continue
		}

		h := tb.Handlers[i]
		if col.IsFixed {
			data := col.Fixed[row*col.ElementSize : (row+1)*col.ElementSize]
			v, err := h.FromFixed(data)
			if err != nil {
				return nil, errors.Wrapf(err, "tdengine: decoding column %q row %d", cfg.Name, row)
			}
			out[i] = v
			continue
		}

		start := col.VarOffsets[row]
		length := col.VarLengths[row]
		data := col.VarData[start : int(start)+int(length)]
		v, err := h.FromVar(data)
		if err != nil {
			return nil, errors.Wrapf(err, "tdengine: decoding column %q row %d", cfg.Name, row)
		}
		out[i] = v
	}
	return out, nil
}
