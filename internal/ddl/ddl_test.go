package ddl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taosdata/taosgen/internal/coltype"
	"github.com/taosdata/taosgen/internal/format"
)

func TestFormatDatabaseWithDrop(t *testing.T) {
	result := DatabaseFormatter{}.FormatDatabase(DatabaseConfig{Database: "bench", DropIfExists: true})
	require.Equal(t, format.StatementList, result.Kind)
	require.Equal(t, []string{
		"DROP DATABASE IF EXISTS `bench`",
		"CREATE DATABASE IF NOT EXISTS `bench`",
	}, result.Statements)
}

func TestFormatDatabaseWithProperties(t *testing.T) {
	result := DatabaseFormatter{}.FormatDatabase(DatabaseConfig{Database: "bench", Properties: "VGROUPS 4"})
	require.Equal(t, []string{"CREATE DATABASE IF NOT EXISTS `bench` VGROUPS 4"}, result.Statements)
}

func TestFormatSuperTableWithTags(t *testing.T) {
	result, err := SuperTableFormatter{}.FormatSuperTable(SuperTableConfig{
		Database: "bench",
		Name:     "sensors",
		Columns:  []coltype.Config{{Name: "v", Tag: coltype.Int}},
		Tags:     []coltype.Config{{Name: "loc", Tag: coltype.VarChar, MaxLength: 16}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"CREATE TABLE IF NOT EXISTS `bench`.`sensors` (ts TIMESTAMP, v INT) TAGS (loc VARCHAR(16));",
	}, result.Statements)
}

func TestFormatSuperTableRejectsMissingMaxLength(t *testing.T) {
	_, err := SuperTableFormatter{}.FormatSuperTable(SuperTableConfig{
		Database: "bench",
		Name:     "sensors",
		Columns:  []coltype.Config{{Name: "name", Tag: coltype.VarChar}},
	})
	require.Error(t, err)
}

func TestFormatChildTables(t *testing.T) {
	result, err := ChildTableFormatter{}.FormatChildTables(ChildTableConfig{
		Database:   "bench",
		SuperTable: "sensors",
		TableNames: []string{"d0", "d1"},
		TagValues:  [][]any{{"nyc"}, {"sfo"}},
	})
	require.NoError(t, err)
	require.Equal(t, []string{
		"CREATE TABLE IF NOT EXISTS `bench`.`d0` USING `bench`.`sensors` TAGS ('nyc') IF NOT EXISTS `bench`.`d1` USING `bench`.`sensors` TAGS ('sfo');",
	}, result.Statements)
}

func TestFormatChildTablesRejectsMismatchedLengths(t *testing.T) {
	_, err := ChildTableFormatter{}.FormatChildTables(ChildTableConfig{
		TableNames: []string{"d0"},
		TagValues:  [][]any{},
	})
	require.Error(t, err)
}
