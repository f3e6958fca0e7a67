// Command taosgen runs a benchmark data generation and ingestion workflow
// from a YAML run document, generalizing the teacher's cmd/dca entrypoint
// (flag.Parse + start.Start around a daemon loop) into a one-shot job
// graph: parse flags and the run document, build the actions every
// workflow step can dispatch to, then run the graph to completion.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/taosdata/taosgen/internal/checkpoint"
	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/config"
	"github.com/taosdata/taosgen/internal/csvsource"
	"github.com/taosdata/taosgen/internal/ddl"
	"github.com/taosdata/taosgen/internal/format"
	"github.com/taosdata/taosgen/internal/format/sqlfmt"
	"github.com/taosdata/taosgen/internal/orchestrator"
	"github.com/taosdata/taosgen/internal/pipeline"
	"github.com/taosdata/taosgen/internal/sink"
	"github.com/taosdata/taosgen/internal/sink/kafka"
	"github.com/taosdata/taosgen/internal/sink/mqtt"
	"github.com/taosdata/taosgen/internal/sink/tdengine"
	"github.com/taosdata/taosgen/internal/start"
	"github.com/taosdata/taosgen/internal/workflow"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	err := start.Start(context.Background(), 30*time.Second, func(ctx context.Context) error {
		return run(ctx, log, os.Args[1:])
	})
	if err != nil {
		log.Fatal().Err(err).Msg("taosgen: run failed")
	}
}

func run(ctx context.Context, log zerolog.Logger, args []string) error {
	fs := pflag.NewFlagSet("taosgen", pflag.ContinueOnError)
	doc, _, err := config.Resolve(fs, args)
	if err != nil {
		return err
	}
	if doc.Global.Verbose {
		log = log.Level(zerolog.DebugLevel)
	}

	app, err := newApp(ctx, doc, log)
	if err != nil {
		return err
	}
	defer app.Close()

	jobs, err := buildJobs(doc.Jobs)
	if err != nil {
		return errors.Wrap(err, "taosgen: building job graph")
	}

	return workflow.Run(ctx, jobs, app.registry)
}

// app holds everything the workflow's registered actions close over:
// the sink factory and formatter built once from the run document, and
// (if enabled) the checkpoint store every insert-data action shares.
type app struct {
	doc         *config.Document
	log         zerolog.Logger
	registry    *workflow.Registry
	sinkFactory sink.Factory
	formatter   format.Formatter
	checkpoint  *checkpoint.Store
}

func newApp(ctx context.Context, doc *config.Document, log zerolog.Logger) (*app, error) {
	schema, err := config.ToColumnTypes(doc.Global.SuperTable.Columns)
	if err != nil {
		return nil, err
	}

	factory, err := buildSinkFactory(doc)
	if err != nil {
		return nil, err
	}

	formatter, err := buildFormatter(doc, schema)
	if err != nil {
		return nil, err
	}

	var store *checkpoint.Store
	if doc.Global.CheckpointPath != "" {
		store, err = checkpoint.Open(doc.Global.CheckpointPath)
		if err != nil {
			return nil, errors.Wrap(err, "taosgen: opening checkpoint store")
		}
		if store.Resumed {
			log.Info().Str("path", doc.Global.CheckpointPath).Msg("taosgen: resuming from checkpoint")
		}
	}

	a := &app{doc: doc, log: log, sinkFactory: factory, formatter: formatter, checkpoint: store}
	a.registry = workflow.NewRegistry()
	a.registry.Register("create-database", a.actionCreateDatabase)
	a.registry.Register("create-super-table", a.actionCreateSuperTable)
	a.registry.Register("create-child-table", a.actionCreateChildTables)
	a.registry.Register("insert-data", a.actionInsertData)
	return a, nil
}

func (a *app) Close() {
	if a.checkpoint != nil {
		if err := a.checkpoint.Close(); err != nil {
			a.log.Error().Err(err).Msg("taosgen: closing checkpoint store")
		}
	}
}

// buildSinkFactory selects a sink.Factory by the run document's
// data_format.format_type, matching GlobalConfig.hpp's DataFormat
// selecting which plugin connector a run uses.
func buildSinkFactory(doc *config.Document) (sink.Factory, error) {
	conn := doc.Global.Connection

	switch doc.Global.DataFormat.FormatType {
	case "", "sql", "stmt":
		cfg := tdengine.Config{DSN: conn.DSN, Database: doc.Global.Database.Name}
		return func(ctx context.Context) (sink.Connector, error) {
			return tdengine.New(cfg), nil
		}, nil
	case "mqtt":
		cfg := mqtt.Config{Broker: conn.Host, Username: conn.User, Password: conn.Password}
		return func(ctx context.Context) (sink.Connector, error) {
			return mqtt.New(cfg), nil
		}, nil
	case "kafka":
		cfg := kafka.Config{Brokers: []string{conn.Host}}
		return func(ctx context.Context) (sink.Connector, error) {
			return kafka.New(cfg), nil
		}, nil
	default:
		return nil, errors.Newf("taosgen: unsupported data_format.format_type %q", doc.Global.DataFormat.FormatType)
	}
}

// buildFormatter selects a format.Formatter by the same format_type
// dimension buildSinkFactory does. Only "" and "sql" build a formatter
// (sqlfmt, SubTable mode); "stmt", "mqtt" and "kafka" are rejected here
// even though buildSinkFactory accepts them.
func buildFormatter(doc *config.Document, schema []coltype.Config) (format.Formatter, error) {
	switch doc.Global.DataFormat.FormatType {
	case "", "sql":
		return sqlfmt.New(doc.Global.Database.Name, schema, format.SubTable), nil
	default:
		return nil, errors.Newf("taosgen: unsupported data_format.format_type %q for formatting", doc.Global.DataFormat.FormatType)
	}
}

// buildJobs converts the document's RawJob list into the workflow
// package's Job type.
func buildJobs(raws []config.RawJob) ([]workflow.Job, error) {
	jobs := make([]workflow.Job, 0, len(raws))
	for _, raw := range raws {
		steps := make([]workflow.Step, 0, len(raw.Steps))
		for _, s := range raw.Steps {
			steps = append(steps, workflow.Step{Name: s.Name, Uses: s.Uses, With: s.With})
		}
		jobs = append(jobs, workflow.Job{Key: raw.Key, Needs: raw.Needs, Steps: steps})
	}
	return jobs, nil
}

func (a *app) actionCreateDatabase(ctx context.Context, with any) error {
	cfg := ddl.DatabaseConfig{
		Database:     a.doc.Global.Database.Name,
		DropIfExists: a.doc.Global.Database.DropIfExists,
		Properties:   a.doc.Global.Database.Properties,
	}
	result := ddl.DatabaseFormatter{}.FormatDatabase(cfg)
	return a.executeDDL(ctx, result)
}

func (a *app) actionCreateSuperTable(ctx context.Context, with any) error {
	columns, err := config.ToColumnTypes(a.doc.Global.SuperTable.Columns)
	if err != nil {
		return err
	}
	tags, err := config.ToColumnTypes(a.doc.Global.SuperTable.Tags)
	if err != nil {
		return err
	}

	result, err := ddl.SuperTableFormatter{}.FormatSuperTable(ddl.SuperTableConfig{
		Database: a.doc.Global.Database.Name,
		Name:     a.doc.Global.SuperTable.Name,
		Columns:  columns,
		Tags:     tags,
	})
	if err != nil {
		return err
	}
	return a.executeDDL(ctx, result)
}

func (a *app) actionCreateChildTables(ctx context.Context, with any) error {
	names, err := a.tableNames()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return nil
	}

	tagValues := make([][]any, len(names))
	for i := range names {
		tagValues[i] = nil
	}

	result, err := ddl.ChildTableFormatter{}.FormatChildTables(ddl.ChildTableConfig{
		Database:   a.doc.Global.Database.Name,
		SuperTable: a.doc.Global.SuperTable.Name,
		TableNames: names,
		TagValues:  tagValues,
	})
	if err != nil {
		return err
	}
	return a.executeDDL(ctx, result)
}

func (a *app) executeDDL(ctx context.Context, result format.Result) error {
	conn, err := a.sinkFactory(ctx)
	if err != nil {
		return errors.Wrap(err, "taosgen: dialing DDL connection")
	}
	defer conn.Close()

	if err := conn.Connect(ctx); err != nil {
		return errors.Wrap(err, "taosgen: connecting for DDL")
	}
	return conn.Execute(ctx, result)
}

func (a *app) tableNames() ([]string, error) {
	tn := a.doc.Global.TableName
	if tn.SourceType == "csv" {
		return csvsource.ReadTableNames(csvsource.TableNameConfig{
			FilePath:    tn.CSV.FilePath,
			HasHeader:   tn.CSV.HasHeader,
			Delimiter:   tn.CSV.Delimiter,
			TBNameIndex: tn.CSV.TBNameIndex,
		})
	}

	count := tn.Generator.Count
	if count <= 0 {
		count = 1
	}
	names := make([]string, count)
	for i := 0; i < count; i++ {
		names[i] = fmt.Sprintf("%s%d", tn.Generator.Prefix, tn.Generator.From+i)
	}
	return names, nil
}

func (a *app) actionInsertData(ctx context.Context, with any) error {
	names, err := a.tableNames()
	if err != nil {
		return err
	}

	schema, err := config.ToColumnTypes(a.doc.Global.SuperTable.Columns)
	if err != nil {
		return err
	}
	columns, err := config.ToGenRowColumns(a.doc.Global.SuperTable.Columns)
	if err != nil {
		return err
	}
	tags, err := config.ToGenRowColumns(a.doc.Global.SuperTable.Tags)
	if err != nil {
		return err
	}
	ts, err := config.ParseTimestamp(a.doc.Global.Timestamp)
	if err != nil {
		return err
	}

	gen := a.doc.Generation
	generateThreads := 1
	if gen.GenerateThreads != nil && *gen.GenerateThreads > 0 {
		generateThreads = *gen.GenerateThreads
	}
	insertThreads := gen.InsertThreads
	if insertThreads <= 0 {
		insertThreads = 1
	}
	queueDepth := gen.QueueDepth
	if queueDepth <= 0 {
		queueDepth = 1024
	}
	interlace := int64(gen.InterlaceMode.Rows)
	if !gen.InterlaceMode.Enabled || interlace <= 0 {
		interlace = 1
	}

	onFailure := orchestrator.OnFailureExit
	if gen.OnFailure == string(orchestrator.OnFailureSkip) {
		onFailure = orchestrator.OnFailureSkip
	}

	o, err := orchestrator.New(ctx, orchestrator.Config{
		Schema:            schema,
		Columns:           columns,
		Tags:              tags,
		Timestamp:         ts,
		TableNames:        names,
		RowsPerTable:      gen.RowsPerTable,
		InterlaceRows:     interlace,
		RowsPerBatch:      gen.RowsPerBatch,
		DisorderIntervals: config.ToDisorderIntervals(gen.DataDisorder),
		RatePerSecond:     gen.FlowControl.RateLimit,
		GenerateThreads:   generateThreads,
		InsertThreads:     insertThreads,
		QueueDepth:        queueDepth,
		PipelineMode:      pipeline.Independent,
		BlockCount:        insertThreads * 2,
		MaxTablesPerBlock: len(names),
		MaxRowsPerTable:   int(interlace),
		Formatter:         a.formatter,
		SinkFactory:       a.sinkFactory,
		SinkPool:          sink.PoolConfig{MinSize: insertThreads, MaxSize: insertThreads, ConnectionTimeout: 10 * time.Second},
		Writer:            sink.WriterConfig{},
		OnFailure:         onFailure,
		Checkpoint:        a.checkpoint,
		Seed:              time.Now().UnixNano(),
		Log:               a.log,
	})
	if err != nil {
		return err
	}

	stats, err := o.Run(ctx)
	if err != nil {
		return err
	}
	a.log.Info().Int64("rows_generated", stats.RowsGenerated).Int64("blocks_written", stats.BlocksWritten).Msg("taosgen: insert-data complete")
	return nil
}
