package msgfmt

import (
	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/pool"
)

// cellAsString decodes one cell to its display string form via the
// column's coltype.Handler, matching TableBlock::get_cell_as_string in
// spirit (a per-type to-string conversion addressed by row/column index).
func cellAsString(tb *pool.TableBlock, tag coltype.Tag, colIdx, rowIndex int) (string, error) {
	col := &tb.Columns[colIdx]
	if col.IsNull[rowIndex] {
		return "", nil
	}

	h := tb.Handlers[colIdx]
	if col.IsFixed {
		data := col.Fixed[rowIndex*col.ElementSize : (rowIndex+1)*col.ElementSize]
		v, err := h.FromFixed(data)
		if err != nil {
			return "", errors.Wrap(err, "msgfmt: decoding fixed cell")
		}
		return h.ToString(v)
	}

	start := col.VarOffsets[rowIndex]
	length := col.VarLengths[rowIndex]
	data := col.VarData[start : int(start)+int(length)]
	v, err := h.FromVar(data)
	if err != nil {
		return "", errors.Wrap(err, "msgfmt: decoding variable-length cell")
	}
	return h.ToString(v)
}
