package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/genrow"
)

const sampleDoc = `
global:
  confirm_prompt: false
  verbose: false
  connection_info:
    host: tdengine
    port: 6041
    user: root
    password: taosdata
  database_info:
    name: bench
    drop_if_exists: true
  super_table_info:
    name: sensors
    columns:
      - name: v
        type: int
        gen_type: order
        order_min: 0
        order_max: 100
      - name: loc
        type: varchar(16)
        gen_type: fromlist
        values: ["nyc", "sfo"]
    tags:
      - name: region
        type: varchar(8)
  timestamp_info:
    start_timestamp: now
    timestamp_precision: ms
    timestamp_step: 1
concurrency: 4
jobs:
  - key: create-database
    steps:
      - name: run
        uses: ddl.create-database
  - key: insert-data
    needs: [create-database]
    steps:
      - name: run
        uses: orchestrator.insert-data
`

func writeTempDoc(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParsesDocument(t *testing.T) {
	path := writeTempDoc(t, sampleDoc)
	doc, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "bench", doc.Global.Database.Name)
	require.Equal(t, 4, doc.Concurrency)
	require.Len(t, doc.Jobs, 2)
	require.Equal(t, []string{"create-database"}, doc.Jobs[1].Needs)
}

func TestToGenRowColumnsConvertsOrderAndFromList(t *testing.T) {
	path := writeTempDoc(t, sampleDoc)
	doc, err := Load(path)
	require.NoError(t, err)

	cols, err := ToGenRowColumns(doc.Global.SuperTable.Columns)
	require.NoError(t, err)
	require.Len(t, cols, 2)

	require.Equal(t, genrow.GenOrder, cols[0].GenType)
	require.Equal(t, int64(0), cols[0].OrderMin)
	require.Equal(t, int64(100), cols[0].OrderMax)
	require.Equal(t, coltype.Int, cols[0].Column.Tag)

	require.Equal(t, genrow.GenFromList, cols[1].GenType)
	require.Equal(t, []any{"nyc", "sfo"}, cols[1].Values)
	require.Equal(t, coltype.VarChar, cols[1].Column.Tag)
	require.Equal(t, 16, cols[1].Column.MaxLength)
}

func TestToColumnTypesConvertsTags(t *testing.T) {
	path := writeTempDoc(t, sampleDoc)
	doc, err := Load(path)
	require.NoError(t, err)

	tags, err := ToColumnTypes(doc.Global.SuperTable.Tags)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	require.Equal(t, "region", tags[0].Name)
	require.Equal(t, coltype.VarChar, tags[0].Tag)
}

func TestParseTimestampNow(t *testing.T) {
	cfg, err := ParseTimestamp(RawTimestamp{StartTimestamp: "now", Precision: "ms", Step: 1})
	require.NoError(t, err)
	require.True(t, cfg.StartIsNow)
	require.Equal(t, int64(0), cfg.NowOffset)
}

func TestParseTimestampNowWithOffset(t *testing.T) {
	cfg, err := ParseTimestamp(RawTimestamp{StartTimestamp: "now-3600000", Precision: "ms"})
	require.NoError(t, err)
	require.True(t, cfg.StartIsNow)
	require.Equal(t, int64(-3600000), cfg.NowOffset)
}

func TestParseTimestampFixedEpoch(t *testing.T) {
	cfg, err := ParseTimestamp(RawTimestamp{StartTimestamp: 1700000000000, Precision: "ms"})
	require.NoError(t, err)
	require.False(t, cfg.StartIsNow)
	require.Equal(t, int64(1700000000000), cfg.StartTimestamp)
}

func TestToDisorderIntervalsConvertsInOrder(t *testing.T) {
	raw := RawDataDisorder{Intervals: []RawDisorderInterval{
		{TimeStart: 100, TimeEnd: 200, Ratio: 0.2, LatencyRangeMs: 50},
		{TimeStart: 500, TimeEnd: 600, Ratio: 0.5, LatencyRangeMs: 10},
	}}
	out := ToDisorderIntervals(raw)
	require.Len(t, out, 2)
	require.Equal(t, genrow.DisorderIntervalConfig{TimeStart: 100, TimeEnd: 200, Ratio: 0.2, LatencyRangeMs: 50}, out[0])
}

func TestToDisorderIntervalsEmptyMeansDisabled(t *testing.T) {
	out := ToDisorderIntervals(RawDataDisorder{})
	require.Empty(t, out)
}

func TestResolveOverlaysFlagsOntoDocument(t *testing.T) {
	path := writeTempDoc(t, sampleDoc)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	doc, flags, err := Resolve(fs, []string{"--config", path, "--verbose", "--concurrency", "8"})
	require.NoError(t, err)
	require.True(t, doc.Global.Verbose)
	require.Equal(t, 8, doc.Concurrency)
	require.Equal(t, path, flags.ConfigPath)
}

func TestResolveRequiresConfigFlag(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	_, _, err := Resolve(fs, nil)
	require.Error(t, err)
}
