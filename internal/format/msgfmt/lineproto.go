package msgfmt

import (
	"bytes"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/influxdata/line-protocol/v2/lineprotocol"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/pool"
)

// LineProtocolFormatter renders one Influx line-protocol line per row,
// using the table name as measurement, the table's registered tag tuple
// (tb.Tags, shared across every row of that table) as line-protocol tags,
// and each schema column as a field, the same measurement/tags/fields
// shape RowSerializer::to_influx_inplace builds. Columns with an explicit
// NULL or "none" value are omitted from the line entirely, matching line
// protocol's lack of a NULL field representation (there is no JSON-style
// `"col":null` equivalent to fall back to); a NULL or "none" tag value is
// omitted the same way, since line protocol has no tag-level NULL
// representation either.
type LineProtocolFormatter struct {
	Schema    []coltype.Config
	Tags      []coltype.Config
	Precision lineprotocol.Precision
}

// NewLineProtocolFormatter builds a LineProtocolFormatter. tags is the
// tag-schema in the same order RowGenerator.Tags generates values, and may
// be nil for insert targets with no tags. precision controls the encoded
// timestamp resolution and must match the timestamp generator's
// configured precision for the values to round-trip correctly; it does
// not rescale the stored timestamp.
func NewLineProtocolFormatter(schema, tags []coltype.Config, precision lineprotocol.Precision) *LineProtocolFormatter {
	return &LineProtocolFormatter{Schema: schema, Tags: tags, Precision: precision}
}

// Format renders a TopicPayload (topic left as the bare table name; sinks
// that need a templated topic should use JSONFormatter's pattern support
// instead) per row across every populated table in blk.
func (f *LineProtocolFormatter) Format(blk *pool.Block) (format.Result, error) {
	if blk == nil || blk.TotalRows == 0 {
		return format.IgnoredResult(), nil
	}

	out := make([]TopicPayload, 0, blk.TotalRows)
	var enc lineprotocol.Encoder
	enc.SetPrecision(f.Precision)
	// Tags are declared (and thus generated) in schema order, not
	// necessarily lexical key order; lax mode keeps the encoder from
	// rejecting that order instead of silently re-sorting it.
	enc.SetLax(true)

	for tblIdx := 0; tblIdx < blk.UsedTables; tblIdx++ {
		tb := &blk.Tables[tblIdx]
		for row := 0; row < tb.UsedRows; row++ {
			enc.Reset()
			enc.StartLine(tb.TableName)

			if err := addTags(&enc, f.Tags, tb.Tags); err != nil {
				return format.Result{}, errors.Wrapf(err, "msgfmt: formatting tags for table %q", tb.TableName)
			}

			wroteField := false
			for colIdx, cfg := range f.Schema {
				col := &tb.Columns[colIdx]
				if col.IsNull[row] {
					continue
				}

				s, err := cellAsString(tb, cfg.Tag, colIdx, row)
				if err != nil {
					return format.Result{}, errors.Wrapf(err, "msgfmt: formatting row %d column %q", row, cfg.Name)
				}

				v, ok := lineProtocolValue(cfg.Tag, s)
				if !ok {
					continue
				}

				enc.AddField(cfg.Name, v)
				wroteField = true
			}

			if !wroteField {
				continue
			}

			enc.EndLine(time.Unix(0, tb.Timestamps[row]*int64(f.Precision.Duration())))
			if err := enc.Err(); err != nil {
				return format.Result{}, errors.Wrapf(err, "msgfmt: encoding line for table %q row %d", tb.TableName, row)
			}

			line := append([]byte(nil), bytes.TrimSuffix(enc.Bytes(), []byte("\n"))...)
			out = append(out, TopicPayload{Topic: tb.TableName, Payload: line})
		}
	}

	return format.PayloadResult(blk, out), nil
}

// addTags writes one AddTag call per entry in tags/values, in schema
// order, skipping a tag whose generated value is nil (none) or
// pool.NullColumn (null). tagSchema and values are parallel slices of the
// same length (RowGenerator.Tags is built from the same tag schema), but
// addTags tolerates a shorter values slice (no tags configured) by simply
// writing none.
func addTags(enc *lineprotocol.Encoder, tagSchema []coltype.Config, values []any) error {
	for i, cfg := range tagSchema {
		if i >= len(values) {
			break
		}
		v := values[i]
		if v == nil || v == pool.NullColumn {
			continue
		}

		h, err := coltype.HandlerFor(cfg)
		if err != nil {
			return errors.Wrapf(err, "msgfmt: resolving handler for tag %q", cfg.Name)
		}
		s, err := h.ToString(v)
		if err != nil {
			return errors.Wrapf(err, "msgfmt: rendering tag %q", cfg.Name)
		}
		if err := enc.AddTag(cfg.Name, s); err != nil {
			return errors.Wrapf(err, "msgfmt: adding tag %q", cfg.Name)
		}
	}
	return nil
}

func lineProtocolValue(tag coltype.Tag, s string) (lineprotocol.Value, bool) {
	switch tag {
	case coltype.Bool:
		return lineprotocol.MustNewValue(s == "true"), true
	case coltype.TinyInt, coltype.SmallInt, coltype.Int, coltype.BigInt:
		n, err := parseInt64(s)
		if err != nil {
			return lineprotocol.Value{}, false
		}
		return lineprotocol.MustNewValue(n), true
	case coltype.TinyIntUnsigned, coltype.SmallIntUnsigned, coltype.IntUnsigned, coltype.BigIntUnsigned:
		n, err := parseUint64(s)
		if err != nil {
			return lineprotocol.Value{}, false
		}
		return lineprotocol.MustNewValue(n), true
	case coltype.Float, coltype.Double, coltype.Decimal:
		n, err := parseFloat64(s)
		if err != nil {
			return lineprotocol.Value{}, false
		}
		return lineprotocol.MustNewValue(n), true
	default:
		return lineprotocol.MustNewValue(s), true
	}
}
