package csvsource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadTableNames(t *testing.T) {
	path := writeFile(t, "tbname\nd0\nd1\nd2\n")
	names, err := ReadTableNames(TableNameConfig{FilePath: path, HasHeader: true, Delimiter: ",", TBNameIndex: 0})
	require.NoError(t, err)
	require.Equal(t, []string{"d0", "d1", "d2"}, names)
}

func TestReadColumnsGroupsByTable(t *testing.T) {
	path := writeFile(t, "tbname,v\nd0,1\nd1,2\nd0,3\n")
	tables, err := ReadColumns(ColumnsConfig{
		FilePath: path, HasHeader: true, Delimiter: ",",
		TBNameIndex: 0, TimestampIndex: -1,
	})
	require.NoError(t, err)
	require.Len(t, tables, 2)
	require.Equal(t, [][]string{{"1"}, {"3"}}, tables["d0"].Rows)
	require.Equal(t, [][]string{{"2"}}, tables["d1"].Rows)
}

func TestReadColumnsAppliesAbsoluteOffset(t *testing.T) {
	path := writeFile(t, "tbname,ts,v\nd0,1000,1\nd0,1500,2\n")
	tables, err := ReadColumns(ColumnsConfig{
		FilePath: path, HasHeader: true, Delimiter: ",",
		TBNameIndex: 0, TimestampIndex: 1, TimestampPrecision: "ms",
		Offset: &TimestampOffset{Type: "absolute", AbsoluteValue: 5000},
	})
	require.NoError(t, err)
	require.Equal(t, []int64{5000, 5500}, tables["d0"].Timestamps)
}

func TestReadTagsExcludesColumns(t *testing.T) {
	path := writeFile(t, "tbname,region,extra\nd0,nyc,x\nd1,sfo,y\n")
	rows, err := ReadTags(TagsConfig{
		FilePath: path, HasHeader: true, Delimiter: ",",
		TBNameIndex: 0, ExcludeIndices: []int{2},
	})
	require.NoError(t, err)
	require.Equal(t, []TagRow{
		{TableName: "d0", Values: []string{"nyc"}},
		{TableName: "d1", Values: []string{"sfo"}},
	}, rows)
}

func TestReadTableNamesRejectsMissingColumn(t *testing.T) {
	path := writeFile(t, "onlyone\na\n")
	_, err := ReadTableNames(TableNameConfig{FilePath: path, HasHeader: true, Delimiter: ",", TBNameIndex: 2})
	require.Error(t, err)
}
