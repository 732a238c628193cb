package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jroosing/dnsblast/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRunsMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRecordAndListRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	summary := engine.Summary{
		NumSent:          100,
		NumCompleted:     95,
		NumTimedOut:      5,
		MinLatencyMicros: 1000,
		AvgLatencyMicros: 2500,
		MaxLatencyMicros: 9000,
		StdDevMicros:     800,
		RunDurationSeconds: 10.5,
	}

	err = s.RecordRun(context.Background(), Run{
		Server:  "127.0.0.1",
		Port:    53,
		Mode:    "udp",
		Summary: summary,
	})
	require.NoError(t, err)

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "127.0.0.1", runs[0].Server)
	assert.Equal(t, int64(100), runs[0].NumSent)
	assert.Equal(t, int64(95), runs[0].NumCompleted)
}

func TestListRunsRespectsLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordRun(context.Background(), Run{
			Server: "10.0.0.1", Port: 53, Mode: "udp",
			Summary: engine.Summary{NumSent: uint64(i + 1)},
		}))
	}

	runs, err := s.ListRuns(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
