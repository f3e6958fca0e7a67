package msgfmt

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/pool"
)

// TopicPayload pairs a rendered topic/key string with its encoded message
// body, matching TopicPayloadPair.
type TopicPayload struct {
	Topic   string
	Payload []byte
}

// JSONFormatter renders one ordered-key JSON object per row, matching
// RowSerializer::to_json and MsgInsertDataFormatter's per-row JSON body:
// the table name (under TableNameKey, omitted if TableNameKey is empty),
// then "ts", then each schema column in schema order. Key order is
// significant to downstream consumers that diff or log raw payloads, so
// this writes JSON by hand rather than through encoding/json's map-based
// (alphabetically re-sorted) encoding.
type JSONFormatter struct {
	Schema       []coltype.Config
	TableNameKey string
	Topic        *PatternGenerator
}

// NewJSONFormatter builds a JSONFormatter. topicPattern may be empty, in
// which case the rendered topic for each row falls back to the table name,
// matching MsgInsertDataFormatter's use of the subtable name when no topic
// template is configured.
func NewJSONFormatter(schema []coltype.Config, tableNameKey, topicPattern string) (*JSONFormatter, error) {
	var topic *PatternGenerator
	if topicPattern != "" {
		pg, err := NewPatternGenerator(topicPattern, schema)
		if err != nil {
			return nil, err
		}
		topic = pg
	}
	return &JSONFormatter{Schema: schema, TableNameKey: tableNameKey, Topic: topic}, nil
}

// Format renders a TopicPayload per row across every populated table in
// blk, matching MsgInsertDataFormatter::format_mqtt's row loop. Every row
// becomes its own message; rows are not grouped by a message count here or
// in the sink writer.
func (f *JSONFormatter) Format(blk *pool.Block) (format.Result, error) {
	if blk == nil || blk.TotalRows == 0 {
		return format.IgnoredResult(), nil
	}

	out := make([]TopicPayload, 0, blk.TotalRows)

	for tblIdx := 0; tblIdx < blk.UsedTables; tblIdx++ {
		tb := &blk.Tables[tblIdx]
		for row := 0; row < tb.UsedRows; row++ {
			payload, err := f.rowToJSON(tb, row)
			if err != nil {
				return format.Result{}, errors.Wrapf(err, "msgfmt: formatting row %d of table %q", row, tb.TableName)
			}

			topic := tb.TableName
			if f.Topic != nil {
				t, err := f.Topic.Generate(tb, row)
				if err != nil {
					return format.Result{}, err
				}
				topic = t
			}

			out = append(out, TopicPayload{Topic: topic, Payload: payload})
		}
	}

	return format.PayloadResult(blk, out), nil
}

func (f *JSONFormatter) rowToJSON(tb *pool.TableBlock, row int) ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	wrote := false

	writeSep := func() {
		if wrote {
			sb.WriteByte(',')
		}
		wrote = true
	}

	if f.TableNameKey != "" && tb.TableName != "" {
		writeSep()
		writeJSONKey(&sb, f.TableNameKey)
		writeJSONString(&sb, tb.TableName)
	}

	writeSep()
	writeJSONKey(&sb, "ts")
	sb.WriteString(strconv.FormatInt(tb.Timestamps[row], 10))

	for colIdx, cfg := range f.Schema {
		writeSep()
		writeJSONKey(&sb, cfg.Name)

		col := &tb.Columns[colIdx]
		if col.IsNull[row] {
			sb.WriteString("null")
			continue
		}

		s, err := cellAsString(tb, cfg.Tag, colIdx, row)
		if err != nil {
			return nil, err
		}

		if jsonValueIsNumeric(cfg.Tag) {
			sb.WriteString(s)
		} else {
			writeJSONString(&sb, s)
		}
	}

	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

func jsonValueIsNumeric(tag coltype.Tag) bool {
	switch tag {
	case coltype.Bool, coltype.TinyInt, coltype.TinyIntUnsigned, coltype.SmallInt, coltype.SmallIntUnsigned,
		coltype.Int, coltype.IntUnsigned, coltype.BigInt, coltype.BigIntUnsigned,
		coltype.Float, coltype.Double, coltype.Decimal:
		return true
	default:
		return false
	}
}

func writeJSONKey(sb *strings.Builder, key string) {
	writeJSONString(sb, key)
	sb.WriteByte(':')
}

func writeJSONString(sb *strings.Builder, s string) {
	b, _ := json.Marshal(s)
	sb.Write(b)
}
