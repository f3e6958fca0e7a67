// Package msgfmt implements message-sink formatters (JSON payloads, Influx
// line protocol) and the pattern/key generation shared by topic and key
// templates, grounded on original_source's PatternGenerator.cpp,
// KeyGenerator.cpp, and TopicGenerator.hpp.
package msgfmt

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/pool"
)

// tokenKind discriminates a parsed pattern token.
type tokenKind int

const (
	tokenText tokenKind = iota
	tokenPlaceholder
)

type patternToken struct {
	kind tokenKind
	text string
}

// parsePattern tokenizes a "{placeholder}"-templated string into literal
// text and placeholder-name runs, mirroring PatternGenerator::parse_pattern's
// single left-to-right scan (there implemented with a regex; Go's
// strings package covers the same brace-delimited scan without pulling in
// regexp, since the grammar has no nesting or escaping to justify it).
func parsePattern(pattern string) ([]patternToken, error) {
	var toks []patternToken
	i := 0
	for i < len(pattern) {
		open := strings.IndexByte(pattern[i:], '{')
		if open < 0 {
			toks = append(toks, patternToken{kind: tokenText, text: pattern[i:]})
			break
		}
		open += i
		if open > i {
			toks = append(toks, patternToken{kind: tokenText, text: pattern[i:open]})
		}
		close := strings.IndexByte(pattern[open:], '}')
		if close < 0 {
			return nil, errors.Newf("msgfmt: unterminated placeholder starting at byte %d in pattern %q", open, pattern)
		}
		close += open
		toks = append(toks, patternToken{kind: tokenPlaceholder, text: pattern[open+1 : close]})
		i = close + 1
	}
	return toks, nil
}

// PatternGenerator renders a tokenized pattern per row, resolving the
// reserved "table"/"ts" placeholders before falling back to a column
// lookup, matching PatternGenerator::get_value_as_string. Unresolved
// column placeholders render as "{COL_NOT_FOUND:<name>}" rather than
// aborting formatting.
type PatternGenerator struct {
	tokens []patternToken
	colIdx map[string]int
	schema []coltype.Config
}

// NewPatternGenerator parses pattern and builds the column-name index from
// schema (schema order), matching build_mapping.
func NewPatternGenerator(pattern string, schema []coltype.Config) (*PatternGenerator, error) {
	toks, err := parsePattern(pattern)
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(schema))
	for i, col := range schema {
		idx[col.Name] = i
	}
	return &PatternGenerator{tokens: toks, colIdx: idx, schema: schema}, nil
}

// Generate renders the pattern for one row of tb.
func (g *PatternGenerator) Generate(tb *pool.TableBlock, rowIndex int) (string, error) {
	var sb strings.Builder
	for _, tok := range g.tokens {
		if tok.kind == tokenText {
			sb.WriteString(tok.text)
			continue
		}
		v, err := g.valueAsString(tok.text, tb, rowIndex)
		if err != nil {
			return "", err
		}
		sb.WriteString(v)
	}
	return sb.String(), nil
}

func (g *PatternGenerator) valueAsString(key string, tb *pool.TableBlock, rowIndex int) (string, error) {
	switch key {
	case "table":
		if tb.TableName == "" {
			return "UNKNOWN_TABLE", nil
		}
		return tb.TableName, nil
	case "ts":
		if rowIndex < tb.UsedRows {
			return strconv.FormatInt(tb.Timestamps[rowIndex], 10), nil
		}
		return "INVALID_TS", nil
	}

	colIdx, ok := g.colIdx[key]
	if !ok {
		return "{COL_NOT_FOUND:" + key + "}", nil
	}
	return cellAsString(tb, g.schema[colIdx].Tag, colIdx, rowIndex)
}
