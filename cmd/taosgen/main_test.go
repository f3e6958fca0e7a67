package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taosdata/taosgen/internal/config"
)

func TestBuildJobsConvertsRawJobs(t *testing.T) {
	raws := []config.RawJob{
		{Key: "create-database", Steps: []config.RawStep{{Name: "run", Uses: "ddl.create-database"}}},
		{Key: "insert-data", Needs: []string{"create-database"}, Steps: []config.RawStep{
			{Name: "run", Uses: "orchestrator.insert-data", With: map[string]any{"rows_per_table": 10}},
		}},
	}

	jobs, err := buildJobs(raws)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, "create-database", jobs[0].Key)
	require.Equal(t, []string{"create-database"}, jobs[1].Needs)
	require.Equal(t, "orchestrator.insert-data", jobs[1].Steps[0].Uses)
}

func TestAppTableNamesGeneratorMode(t *testing.T) {
	a := &app{doc: &config.Document{}}
	a.doc.Global.TableName.Generator.Prefix = "d"
	a.doc.Global.TableName.Generator.Count = 3
	a.doc.Global.TableName.Generator.From = 1

	names, err := a.tableNames()
	require.NoError(t, err)
	require.Equal(t, []string{"d1", "d2", "d3"}, names)
}

func TestBuildSinkFactoryRejectsUnknownFormat(t *testing.T) {
	doc := &config.Document{}
	doc.Global.DataFormat.FormatType = "carrier-pigeon"
	_, err := buildSinkFactory(doc)
	require.Error(t, err)
}
