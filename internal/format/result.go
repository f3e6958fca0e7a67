// Package format defines the formatter contract and registry: formatters
// turn a populated pool.Block into wire-ready output for a sink, keyed by
// "<action-domain>.<format-type>" (e.g. "insert.sql", "insert.line",
// "create-database.sql"). Concrete formatters live in the sqlfmt, stmtfmt,
// and msgfmt subpackages.
//
// Grounded on original_source's FormatResult.hpp (a variant of
// std::string / std::vector<std::string> / SqlInsertData / StmtV2InsertData)
// and IFormatter.hpp's formatter interface hierarchy and InsertMode enum.
package format

import "github.com/taosdata/taosgen/internal/pool"

// ResultKind discriminates the FormatResult sum type.
type ResultKind int

const (
	// Ignored carries no payload: the formatter had nothing to emit for
	// this input (e.g. an empty block), the variant's plain "" string case
	// in the original.
	Ignored ResultKind = iota

	// StatementList carries one or more standalone statement strings
	// (DDL, or a single combined SQL insert statement), the variant's
	// std::vector<std::string> (and single-string SqlInsertData) cases.
	StatementList

	// InsertPayload carries a typed, connector-specific payload (a
	// prepared-statement bind vector, an MQTT/Kafka message set), the
	// variant's StmtV2InsertData case generalized to any sink.
	InsertPayload
)

// Result is the formatter output sum type. Exactly the fields matching
// Kind are meaningful.
type Result struct {
	Kind ResultKind

	Statements []string

	// StartTime/EndTime/TotalRows mirror BaseInsertData's bookkeeping,
	// carried alongside any payload kind for metrics/checkpointing.
	StartTime int64
	EndTime   int64
	TotalRows int

	// Payload carries kind-specific typed data for InsertPayload results
	// (e.g. *stmtfmt.BindPayload, []msgfmt.TopicPayload). Formatters that
	// only ever produce StatementList results leave this nil.
	Payload any
}

// IgnoredResult is the zero-row / nothing-to-emit result.
func IgnoredResult() Result { return Result{Kind: Ignored} }

// StatementResult builds a StatementList result, stamping block
// bookkeeping fields from blk.
func StatementResult(blk *pool.Block, statements ...string) Result {
	return Result{
		Kind:       StatementList,
		Statements: statements,
		StartTime:  blk.StartTime,
		EndTime:    blk.EndTime,
		TotalRows:  blk.TotalRows,
	}
}

// PayloadResult builds an InsertPayload result from block bookkeeping and
// an arbitrary typed payload.
func PayloadResult(blk *pool.Block, payload any) Result {
	return Result{
		Kind:      InsertPayload,
		StartTime: blk.StartTime,
		EndTime:   blk.EndTime,
		TotalRows: blk.TotalRows,
		Payload:   payload,
	}
}
