// Package csvsource reads table names, row data, and tag values from CSV
// files, grounded on original_source's TableNameCSVReader.hpp,
// ColumnsCSVReader.cpp, and TagsCSVReader.hpp.
//
// It uses the standard library's encoding/csv rather than a third-party
// CSV library: CSV parsing here is a plain delimited-text read with no
// domain-specific behavior (quoting, embedded delimiters, header
// skipping) that a third-party library would do meaningfully better, and
// no repo in the reference pack imports one for this role.
package csvsource

import (
	"encoding/csv"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

func newReader(path string, delimiter string) (*csv.Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "csvsource: opening %s", path)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	if delimiter != "" {
		r.Comma = rune(delimiter[0])
	}
	return r, f, nil
}

func readAll(path, delimiter string, hasHeader bool) ([][]string, error) {
	r, f, err := newReader(path, delimiter)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "csvsource: reading %s", path)
	}
	if hasHeader && len(rows) > 0 {
		rows = rows[1:]
	}
	return rows, nil
}

// TableNameConfig mirrors TableNameConfig::CSV.
type TableNameConfig struct {
	FilePath    string
	HasHeader   bool
	Delimiter   string
	TBNameIndex int
}

// ReadTableNames reads the table-name column out of a CSV file, matching
// TableNameCSVReader::generate.
func ReadTableNames(cfg TableNameConfig) ([]string, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("csvsource: table name CSV file path is empty")
	}

	rows, err := readAll(cfg.FilePath, cfg.Delimiter, cfg.HasHeader)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	for i, row := range rows {
		if cfg.TBNameIndex >= len(row) {
			return nil, errors.Newf("csvsource: row %d has only %d columns, need index %d in file %s",
				i+1, len(row), cfg.TBNameIndex, cfg.FilePath)
		}
		names = append(names, strings.TrimSpace(row[cfg.TBNameIndex]))
	}
	return names, nil
}

// TimestampOffset mirrors TimestampCSVConfig's offset_config variant:
// either a fixed absolute starting point each table's first raw
// timestamp is rebased onto, or a calendar offset added to every raw
// timestamp.
type TimestampOffset struct {
	Type string // "absolute" or "relative"

	AbsoluteValue int64

	RelativeYears, RelativeMonths, RelativeDays int
	RelativeHours, RelativeSeconds              int
}

// ColumnsConfig mirrors ColumnsCSV.
type ColumnsConfig struct {
	FilePath  string
	HasHeader bool
	Delimiter string

	TBNameIndex int // -1 disables a table-name column
	// TimestampIndex selects the raw-timestamp column; -1 means no
	// timestamp column is present (caller supplies timestamps another
	// way, e.g. a genrow.TimestampGenerator per table).
	TimestampIndex     int
	TimestampPrecision string
	Offset             *TimestampOffset
}

// TableRows is one table's data rows plus parallel timestamps, matching
// the original's per-table TableData aggregate.
type TableRows struct {
	TableName  string
	Timestamps []int64
	Rows       [][]string
}

// ReadColumns reads a CSV file into one TableRows per distinct table
// name, matching ColumnsCSVReader::generate's row-to-table grouping and
// timestamp-offset handling.
func ReadColumns(cfg ColumnsConfig) (map[string]*TableRows, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("csvsource: columns CSV file path is empty")
	}

	rows, err := readAll(cfg.FilePath, cfg.Delimiter, cfg.HasHeader)
	if err != nil {
		return nil, err
	}

	tables := make(map[string]*TableRows)
	firstRaw := make(map[string]int64)

	for i, row := range rows {
		tableName := "default_table"
		if cfg.TBNameIndex >= 0 {
			if cfg.TBNameIndex >= len(row) {
				return nil, errors.Newf("csvsource: row %d missing table name column %d in file %s", i+1, cfg.TBNameIndex, cfg.FilePath)
			}
			tableName = strings.TrimSpace(row[cfg.TBNameIndex])
		}

		tbl, ok := tables[tableName]
		if !ok {
			tbl = &TableRows{TableName: tableName}
			tables[tableName] = tbl
		}

		var ts int64
		if cfg.TimestampIndex >= 0 {
			if cfg.TimestampIndex >= len(row) {
				return nil, errors.Newf("csvsource: row %d missing timestamp column %d in file %s", i+1, cfg.TimestampIndex, cfg.FilePath)
			}
			raw, err := parseTimestamp(row[cfg.TimestampIndex], cfg.TimestampPrecision)
			if err != nil {
				return nil, errors.Wrapf(err, "csvsource: row %d in file %s", i+1, cfg.FilePath)
			}
			ts, err = applyOffset(raw, tableName, firstRaw, cfg.TimestampPrecision, cfg.Offset)
			if err != nil {
				return nil, err
			}
		}
		tbl.Timestamps = append(tbl.Timestamps, ts)

		values := make([]string, 0, len(row))
		for idx, v := range row {
			if idx == cfg.TBNameIndex || idx == cfg.TimestampIndex {
				continue
			}
			values = append(values, strings.TrimSpace(v))
		}
		tbl.Rows = append(tbl.Rows, values)
	}

	return tables, nil
}

// unitsPerSecond returns how many raw timestamp units make up one second
// at the given precision.
func unitsPerSecond(precision string) int64 {
	switch precision {
	case "us":
		return 1_000_000
	case "ns":
		return 1_000_000_000
	default: // "ms"
		return 1_000
	}
}

func parseTimestamp(raw, precision string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		switch precision {
		case "us":
			return t.UnixMicro(), nil
		case "ns":
			return t.UnixNano(), nil
		default:
			return t.UnixMilli(), nil
		}
	}

	var n int64
	neg := false
	for i, r := range raw {
		if i == 0 && r == '-' {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return 0, errors.Newf("csvsource: unparseable timestamp %q", raw)
		}
		n = n*10 + int64(r-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

func applyOffset(raw int64, tableName string, firstRaw map[string]int64, precision string, offset *TimestampOffset) (int64, error) {
	if offset == nil {
		return raw, nil
	}

	switch offset.Type {
	case "absolute":
		first, seen := firstRaw[tableName]
		if !seen {
			firstRaw[tableName] = raw
			first = raw
		}
		return offset.AbsoluteValue + (raw - first), nil
	case "relative":
		mult := unitsPerSecond(precision)
		seconds := raw / mult
		fraction := raw % mult

		t := time.Unix(seconds, 0).UTC()
		t = t.AddDate(offset.RelativeYears, offset.RelativeMonths, offset.RelativeDays)
		t = t.Add(time.Duration(offset.RelativeHours) * time.Hour)
		t = t.Add(time.Duration(offset.RelativeSeconds) * time.Second)

		return t.Unix()*mult + fraction, nil
	default:
		return 0, errors.Newf("csvsource: unsupported timestamp offset type %q", offset.Type)
	}
}

// TagsConfig mirrors TagsCSV.
type TagsConfig struct {
	FilePath       string
	HasHeader      bool
	Delimiter      string
	TBNameIndex    int
	ExcludeIndices []int
}

// TagRow is one child table's tag values, matching the order they appear
// in the CSV file after removing the table-name and excluded columns.
type TagRow struct {
	TableName string
	Values    []string
}

// ReadTags reads per-table tag value rows from a CSV file, matching
// TagsCSVReader::generate.
func ReadTags(cfg TagsConfig) ([]TagRow, error) {
	if cfg.FilePath == "" {
		return nil, errors.New("csvsource: tags CSV file path is empty")
	}

	rows, err := readAll(cfg.FilePath, cfg.Delimiter, cfg.HasHeader)
	if err != nil {
		return nil, err
	}

	excluded := make(map[int]bool, len(cfg.ExcludeIndices))
	for _, idx := range cfg.ExcludeIndices {
		excluded[idx] = true
	}

	out := make([]TagRow, 0, len(rows))
	for i, row := range rows {
		tableName := ""
		if cfg.TBNameIndex >= 0 {
			if cfg.TBNameIndex >= len(row) {
				return nil, errors.Newf("csvsource: row %d missing table name column %d in file %s", i+1, cfg.TBNameIndex, cfg.FilePath)
			}
			tableName = strings.TrimSpace(row[cfg.TBNameIndex])
		}

		values := make([]string, 0, len(row))
		for idx, v := range row {
			if idx == cfg.TBNameIndex || excluded[idx] {
				continue
			}
			values = append(values, strings.TrimSpace(v))
		}
		out = append(out, TagRow{TableName: tableName, Values: values})
	}
	return out, nil
}
