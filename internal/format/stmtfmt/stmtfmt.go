// Package stmtfmt implements the prepared-statement bind formatter: it
// builds the parameterized query template once (prepare-time, matching
// StmtInsertDataFormatter::prepare's three-mode switch) and, per block,
// hands the connector a BindPayload that exposes the pool block's column
// arrays directly rather than copying them into a driver-specific bind
// structure — that copy (or, for drivers that accept raw buffers, the
// direct handoff) happens in the sink connector that actually owns the
// `taosdata/driver-go/v3` stmt2 handle, matching how BlockStmtV2Data wraps
// a MemoryPool::MemoryBlock* instead of re-serializing it.
package stmtfmt

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/pool"
)

// Formatter builds the bind query template at construction and wraps
// each block in a BindPayload at format time.
type Formatter struct {
	Database string
	Table    string // super table name, required for SuperTable/AutoCreateTable
	Schema   []coltype.Config
	Tags     []coltype.Config // AutoCreateTable mode only; tag-tuple schema for TAGS(...)
	Mode     format.InsertMode

	query string
}

// New builds a stmtfmt.Formatter and its query template, matching
// StmtInsertDataFormatter::prepare. table is the super table name and is
// ignored in SubTable mode (each table binds its own name at execute
// time). tags is only consulted in AutoCreateTable mode, where it sizes
// the TAGS(...) placeholder list; every other mode ignores it.
func New(database, table string, schema, tags []coltype.Config, mode format.InsertMode) (*Formatter, error) {
	f := &Formatter{Database: database, Table: table, Schema: schema, Tags: tags, Mode: mode}
	f.query = buildQuery(database, table, schema, tags, mode)
	if f.query == "" {
		return nil, errors.Newf("stmtfmt: unsupported insert mode %v", mode)
	}
	return f, nil
}

// Query returns the parameterized statement template to prepare once per
// connection, reused across every block this Formatter produces.
func (f *Formatter) Query() string { return f.query }

func buildQuery(database, table string, schema, tags []coltype.Config, mode format.InsertMode) string {
	var sb strings.Builder

	switch mode {
	case format.SubTable:
		sb.WriteString("INSERT INTO ? VALUES(?")
		for range schema {
			sb.WriteString(",?")
		}
		sb.WriteByte(')')

	case format.SuperTable:
		sb.WriteString("INSERT INTO `")
		sb.WriteString(database)
		sb.WriteString("`.`")
		sb.WriteString(table)
		sb.WriteString("`(tbname,ts")
		for _, cfg := range schema {
			sb.WriteByte(',')
			sb.WriteString(cfg.Name)
		}
		sb.WriteString(") VALUES(?,?")
		for range schema {
			sb.WriteString(",?")
		}
		sb.WriteByte(')')

	case format.AutoCreateTable:
		sb.WriteString("INSERT INTO ? USING `")
		sb.WriteString(database)
		sb.WriteString("`.`")
		sb.WriteString(table)
		sb.WriteString("` TAGS(")
		for i := range tags {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('?')
		}
		sb.WriteString(") VALUES(?")
		for range schema {
			sb.WriteString(",?")
		}
		sb.WriteByte(')')

	default:
		return ""
	}

	return sb.String()
}

// BindPayload exposes one formatted block to a connector that binds
// directly from the pool's column arrays, matching BlockStmtV2Data's
// role of wrapping a MemoryPool::MemoryBlock* instead of copying it.
type BindPayload struct {
	Query  string
	Mode   format.InsertMode
	Schema []coltype.Config
	Tags   []coltype.Config // AutoCreateTable mode only
	Block  *pool.Block
}

// Format wraps blk in a BindPayload carrying this Formatter's prepared
// query template, matching StmtV2InsertData's construction from a block
// plus its (lazily built, here deferred-to-connector) bind vector.
func (f *Formatter) Format(blk *pool.Block) (format.Result, error) {
	if blk == nil || blk.TotalRows == 0 {
		return format.IgnoredResult(), nil
	}

	return format.PayloadResult(blk, &BindPayload{
		Query:  f.query,
		Mode:   f.Mode,
		Schema: f.Schema,
		Tags:   f.Tags,
		Block:  blk,
	}), nil
}
