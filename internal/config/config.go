// Package config loads a benchmark run's YAML document and CLI overrides
// into the typed configuration every other package consumes.
//
// The document shape is grounded on original_source's GlobalConfig.hpp,
// GenerationConfig.hpp, ColumnConfig.hpp, TimestampGeneratorConfig.hpp,
// ConnectionInfo.hpp, DatabaseInfo.hpp, SuperTableInfo.hpp, and
// workflow/ConfigData.hpp/Job.hpp/Step.hpp, decoded with
// gopkg.in/yaml.v3 (the teacher pack's YAML library) rather than
// hand-written parsing. CLI precedence follows the teacher's
// config.Run (a flag bound at package scope) generalized from stdlib
// flag to github.com/spf13/pflag for GNU-style long flags and
// flag-over-file override semantics.
package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/genrow"
)

// RawColumn is one schema column or tag as written in YAML, matching
// ColumnConfig.hpp's field set.
type RawColumn struct {
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	PrimaryKey bool    `yaml:"primary_key"`
	Count      int     `yaml:"count"`
	NullRatio  float64 `yaml:"null_ratio"`
	NoneRatio  float64 `yaml:"none_ratio"`

	GenType string `yaml:"gen_type"`

	Distribution string   `yaml:"distribution"`
	Min          *float64 `yaml:"min"`
	Max          *float64 `yaml:"max"`
	DecMin       string   `yaml:"dec_min"`
	DecMax       string   `yaml:"dec_max"`
	Corpus       []string `yaml:"corpus"`
	Chinese      bool     `yaml:"chinese"`

	OrderMin *int64 `yaml:"order_min"`
	OrderMax *int64 `yaml:"order_max"`

	Formula string `yaml:"formula"`

	Values []any `yaml:"values"`
}

// RawTimestamp mirrors TimestampGeneratorConfig.hpp. StartTimestamp is a
// variant: either an epoch integer or the literal "now" (optionally
// "now+N<unit>"/"now-N<unit>", or the same with "now()"), so it is decoded
// into an any and resolved
// by ParseTimestamp.
type RawTimestamp struct {
	StartTimestamp any    `yaml:"start_timestamp"`
	Precision      string `yaml:"timestamp_precision"`
	Step           int64  `yaml:"timestamp_step"`
}

// RawConnectionPool mirrors ConnectionInfo::ConnectionPoolConfig.
type RawConnectionPool struct {
	Enabled           bool `yaml:"enabled"`
	MaxPoolSize       int  `yaml:"max_pool_size"`
	MinPoolSize       int  `yaml:"min_pool_size"`
	ConnectionTimeout int  `yaml:"connection_timeout"` // ms
}

// RawConnection mirrors ConnectionInfo.hpp.
type RawConnection struct {
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	DSN      string            `yaml:"dsn"`
	Pool     RawConnectionPool `yaml:"pool_config"`
}

// RawDatabase mirrors DatabaseInfo.hpp.
type RawDatabase struct {
	Name         string `yaml:"name"`
	Precision    string `yaml:"precision"`
	DropIfExists bool   `yaml:"drop_if_exists"`
	Properties   string `yaml:"properties"`
}

// RawSuperTable mirrors SuperTableInfo.hpp.
type RawSuperTable struct {
	Name    string      `yaml:"name"`
	Columns []RawColumn `yaml:"columns"`
	Tags    []RawColumn `yaml:"tags"`
}

// RawDataFormat mirrors DataFormat.hpp. RecordsPerMessage has no field in
// the original (message-oriented formats didn't exist there); it is a
// supplemented field that is decoded but not read by any formatter: the
// JSON and line-protocol formatters emit one message per row.
type RawDataFormat struct {
	FormatType        string         `yaml:"format_type"`
	SupportTags       bool           `yaml:"support_tags"`
	RecordsPerMessage int            `yaml:"records_per_message"`
	Opts              map[string]any `yaml:"opts"`
}

// RawTableName mirrors TableNameConfig.hpp.
type RawTableName struct {
	SourceType string `yaml:"source_type"`
	Generator  struct {
		Prefix string `yaml:"prefix"`
		Count  int    `yaml:"count"`
		From   int    `yaml:"from"`
	} `yaml:"generator"`
	CSV struct {
		FilePath    string `yaml:"file_path"`
		HasHeader   bool   `yaml:"has_header"`
		Delimiter   string `yaml:"delimiter"`
		TBNameIndex int    `yaml:"tbname_index"`
	} `yaml:"csv"`
}

// RawDisorderInterval mirrors GenerationConfig::DataDisorder::Interval.
// TimeStart/TimeEnd are resolved epoch values in the run's own
// timestamp-precision unit (the original's std::variant<int64_t,string>
// "now"-relative spelling is not supported here; an interval always
// names concrete bounds).
type RawDisorderInterval struct {
	TimeStart      int64   `yaml:"time_start"`
	TimeEnd        int64   `yaml:"time_end"`
	Ratio          float64 `yaml:"ratio"`
	LatencyRangeMs int64   `yaml:"latency_range_ms"`
}

// RawDataDisorder mirrors GenerationConfig::DataDisorder: enabled iff at
// least one interval is configured.
type RawDataDisorder struct {
	Intervals []RawDisorderInterval `yaml:"intervals"`
}

// RawGeneration mirrors GenerationConfig.hpp.
type RawGeneration struct {
	InterlaceMode struct {
		Enabled bool `yaml:"enabled"`
		Rows    int  `yaml:"rows"`
	} `yaml:"interlace_mode"`
	DataCache struct {
		Enabled         bool `yaml:"enabled"`
		NumCachedBlocks int  `yaml:"num_cached_batches"`
	} `yaml:"data_cache"`
	FlowControl struct {
		Enabled   bool    `yaml:"enabled"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"flow_control"`
	DataDisorder    RawDataDisorder `yaml:"data_disorder"`
	GenerateThreads *int            `yaml:"generate_threads"`
	RowsPerTable    int64           `yaml:"rows_per_table"`
	RowsPerBatch    int64           `yaml:"rows_per_batch"`
	TablesReuseData bool            `yaml:"tables_reuse_data"`
	InsertThreads   int             `yaml:"insert_threads"`
	QueueDepth      int             `yaml:"queue_depth"`
	OnFailure       string          `yaml:"on_failure"` // "exit" or "skip"
}

// RawGlobal mirrors GlobalConfig.hpp.
type RawGlobal struct {
	ConfirmPrompt bool          `yaml:"confirm_prompt"`
	Verbose       bool          `yaml:"verbose"`
	LogDir        string        `yaml:"log_dir"`
	Connection    RawConnection `yaml:"connection_info"`
	DataFormat    RawDataFormat `yaml:"data_format"`
	Database      RawDatabase   `yaml:"database_info"`
	SuperTable    RawSuperTable `yaml:"super_table_info"`
	TableName     RawTableName  `yaml:"table_name_info"`
	Timestamp     RawTimestamp  `yaml:"timestamp_info"`

	// CheckpointPath, when set, enables resumable runs via
	// internal/checkpoint; it has no counterpart in GlobalConfig.hpp
	// (checkpointing is a supplemented feature, not present in the
	// original implementation).
	CheckpointPath string `yaml:"checkpoint_path"`
}

// RawStep mirrors Step.hpp's {name, uses, with} fields.
type RawStep struct {
	Name string         `yaml:"name"`
	Uses string         `yaml:"uses"`
	With map[string]any `yaml:"with"`
}

// RawJob mirrors Job.hpp's {key, name, needs, steps, find_create} fields.
type RawJob struct {
	Key        string    `yaml:"key"`
	Name       string    `yaml:"name"`
	Needs      []string  `yaml:"needs"`
	Steps      []RawStep `yaml:"steps"`
	FindCreate bool      `yaml:"find_create"`
}

// Document is the top-level parsed YAML document, mirroring
// ConfigData.hpp's {global, concurrency, jobs} fields.
type Document struct {
	Global      RawGlobal     `yaml:"global"`
	Concurrency int           `yaml:"concurrency"`
	Generation  RawGeneration `yaml:"generation"`
	Jobs        []RawJob      `yaml:"jobs"`
}

// Load reads and parses the YAML document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: reading %s", path)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(err, "config: parsing %s", path)
	}
	if doc.Concurrency <= 0 {
		doc.Concurrency = 1
	}
	return &doc, nil
}

// ToColumnType converts a RawColumn's type string and length/precision
// fields into a coltype.Config, erroring on an unparseable type string
// (coltype.ParseType surfaces the reason).
func ToColumnType(raw RawColumn) (coltype.Config, error) {
	tag, maxLen, precOrScale, err := coltype.ParseType(raw.Type)
	if err != nil {
		return coltype.Config{}, errors.Wrapf(err, "config: column %q", raw.Name)
	}

	cfg := coltype.Config{
		Name:       raw.Name,
		Tag:        tag,
		Count:      raw.Count,
		PrimaryKey: raw.PrimaryKey,
		NullRatio:  raw.NullRatio,
		NoneRatio:  raw.NoneRatio,
	}
	if cfg.Count == 0 {
		cfg.Count = 1
	}
	if tag == coltype.Decimal {
		cfg.Precision = maxLen
		cfg.Scale = precOrScale
	} else {
		cfg.MaxLength = maxLen
	}
	return cfg, nil
}

// ToGenRowColumn converts a RawColumn into a genrow.ColumnConfig,
// dispatching on gen_type the same way ColumnConfig.hpp's optional
// gen_type field selects which attribute group is meaningful.
func ToGenRowColumn(raw RawColumn) (genrow.ColumnConfig, error) {
	col, err := ToColumnType(raw)
	if err != nil {
		return genrow.ColumnConfig{}, err
	}

	out := genrow.ColumnConfig{
		Column:    col,
		NullRatio: raw.NullRatio,
		NoneRatio: raw.NoneRatio,
	}

	genType := raw.GenType
	if genType == "" {
		genType = "random"
	}
	out.GenType = genrow.GenType(genType)

	switch out.GenType {
	case genrow.GenRandom:
		out.Distribution = genrow.Distribution(raw.Distribution)
		if out.Distribution == "" {
			out.Distribution = genrow.DistUniform
		}
		if raw.Min != nil {
			out.Min = *raw.Min
		}
		if raw.Max != nil {
			out.Max = *raw.Max
		}
		out.DecMin = raw.DecMin
		out.DecMax = raw.DecMax
		out.Corpus = raw.Corpus
		out.Chinese = raw.Chinese
	case genrow.GenOrder:
		if raw.OrderMin != nil {
			out.OrderMin = *raw.OrderMin
		}
		if raw.OrderMax != nil {
			out.OrderMax = *raw.OrderMax
		}
	case genrow.GenExpression:
		out.Formula = raw.Formula
	case genrow.GenFromList:
		out.Values = raw.Values
	default:
		return genrow.ColumnConfig{}, errors.Newf("config: column %q has unknown gen_type %q", raw.Name, genType)
	}

	return out, nil
}

// ToColumnTypes converts a slice of RawColumn into coltype.Config,
// preserving order, for the schema/tag lists a ddl formatter consumes.
func ToColumnTypes(raws []RawColumn) ([]coltype.Config, error) {
	out := make([]coltype.Config, 0, len(raws))
	for _, raw := range raws {
		cfg, err := ToColumnType(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// ToGenRowColumns converts a slice of RawColumn into genrow.ColumnConfig,
// preserving order.
func ToGenRowColumns(raws []RawColumn) ([]genrow.ColumnConfig, error) {
	out := make([]genrow.ColumnConfig, 0, len(raws))
	for _, raw := range raws {
		cfg, err := ToGenRowColumn(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, nil
}

// ToDisorderIntervals converts a RawDataDisorder's intervals into
// genrow.DisorderIntervalConfig, preserving order. An empty/zero-value
// RawDataDisorder converts to an empty slice, which genrow.NewDisorderInjector
// treats as "disabled".
func ToDisorderIntervals(raw RawDataDisorder) []genrow.DisorderIntervalConfig {
	out := make([]genrow.DisorderIntervalConfig, 0, len(raw.Intervals))
	for _, iv := range raw.Intervals {
		out = append(out, genrow.DisorderIntervalConfig{
			TimeStart:      iv.TimeStart,
			TimeEnd:        iv.TimeEnd,
			Ratio:          iv.Ratio,
			LatencyRangeMs: iv.LatencyRangeMs,
		})
	}
	return out
}

// ParseTimestamp resolves a RawTimestamp's variant start_timestamp field
// (an integer epoch value or the literal "now"/"now+N<unit>"/"now-N<unit>")
// into a genrow.TimestampConfig.
func ParseTimestamp(raw RawTimestamp) (genrow.TimestampConfig, error) {
	cfg := genrow.TimestampConfig{
		Precision: raw.Precision,
		Step:      raw.Step,
	}
	if cfg.Precision == "" {
		cfg.Precision = "ms"
	}
	if cfg.Step == 0 {
		cfg.Step = 1
	}

	switch v := raw.StartTimestamp.(type) {
	case nil:
		cfg.StartIsNow = true
	case string:
		offset, err := parseNowOffset(v, cfg.Precision)
		if err != nil {
			return genrow.TimestampConfig{}, err
		}
		cfg.StartIsNow = true
		cfg.NowOffset = offset
	case int:
		cfg.StartTimestamp = int64(v)
	case int64:
		cfg.StartTimestamp = v
	default:
		return genrow.TimestampConfig{}, errors.Newf("config: start_timestamp has unsupported type %T", raw.StartTimestamp)
	}
	return cfg, nil
}

// parseNowOffset parses "now", "now+N<unit>", "now-N<unit>" (also spelled
// "now()+N<unit>") into an offset expressed in the same precision unit as
// the surrounding TimestampConfig. N without a unit is already in that
// precision unit; a unit suffix is converted by genrow.ParseStartTimestamp.
func parseNowOffset(s, precision string) (int64, error) {
	if strings.HasPrefix(s, "now()") {
		s = "now" + s[len("now()"):]
	}
	if s == "now" {
		return 0, nil
	}

	sign := int64(1)
	rest := s
	switch {
	case len(s) > 3 && s[:3] == "now" && s[3] == '+':
		rest = s[4:]
	case len(s) > 3 && s[:3] == "now" && s[3] == '-':
		sign = -1
		rest = s[4:]
	default:
		return 0, errors.Newf("config: unrecognized start_timestamp %q", s)
	}

	var n int64
	digits := 0
	for _, r := range rest {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int64(r-'0')
		digits++
	}
	if n == 0 {
		return 0, errors.Newf("config: unrecognized start_timestamp offset %q", s)
	}
	if digits < len(rest) {
		_, offset, err := genrow.ParseStartTimestamp("now()"+s[3:], precision)
		if err != nil {
			return 0, errors.Wrapf(err, "config: start_timestamp %q", s)
		}
		return offset, nil
	}
	return sign * n, nil
}
