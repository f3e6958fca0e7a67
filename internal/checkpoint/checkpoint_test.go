package checkpoint

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterLoadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Commit("sensor_1", 100))
	require.NoError(t, w.Commit("sensor_2", 50))
	require.NoError(t, w.Commit("sensor_1", 200))

	latest, err := Load(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, map[string]int64{"sensor_1": 200, "sensor_2": 50}, latest)
}

func TestWriterStickyErr(t *testing.T) {
	w := NewWriter(&failingWriter{})
	require.Error(t, w.Commit("sensor_1", 1))
	firstErr := w.Err()
	require.Error(t, w.Commit("sensor_1", 2))
	require.Equal(t, firstErr, w.Err())
}

func TestLoadToleratesTruncatedTrailingRecord(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Commit("sensor_1", 100))
	truncated := buf.Bytes()[:buf.Len()-3]

	latest, err := Load(bytes.NewReader(truncated))
	require.NoError(t, err)
	require.Empty(t, latest)
}

func TestStoreOpenResumesFromExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.bin")

	s1, err := Open(path)
	require.NoError(t, err)
	require.False(t, s1.Resumed)
	require.NoError(t, s1.Commit("sensor_1", 42))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.True(t, s2.Resumed)
	require.Equal(t, int64(42), s2.Latest["sensor_1"])
	require.NoError(t, s2.Commit("sensor_1", 99))
	require.NoError(t, s2.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	latest, err := Load(f)
	require.NoError(t, err)
	require.Equal(t, int64(99), latest["sensor_1"])
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, os.ErrClosed }
