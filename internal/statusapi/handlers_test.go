package statusapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jroosing/dnsblast/internal/engine"
	"github.com/jroosing/dnsblast/internal/history"
	"github.com/jroosing/dnsblast/internal/statusapi"
	"github.com/jroosing/dnsblast/internal/statusapi/models"
)

func TestHealthEndpoint(t *testing.T) {
	srv := statusapi.New(statusapi.Config{Addr: "127.0.0.1:0"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestStatsEndpointReflectsLiveSnapshot(t *testing.T) {
	srv := statusapi.New(statusapi.Config{Addr: "127.0.0.1:0"}, nil)
	srv.SetStatsFunc(func() engine.Summary {
		return engine.Summary{NumSent: 42, NumCompleted: 40}
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.RunStatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(42), resp.NumSent)
	assert.Equal(t, uint64(40), resp.NumCompleted)
}

func TestStatsRequiresAPIKeyWhenConfigured(t *testing.T) {
	srv := statusapi.New(statusapi.Config{Addr: "127.0.0.1:0", APIKey: "topsecret"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req2.Header.Set("X-API-Key", "topsecret")
	w2 := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
}

func TestRunsEndpointReadsHistoryStore(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.RecordRun(t.Context(), history.Run{
		Server:  "127.0.0.1",
		Port:    53,
		Mode:    "udp",
		Summary: engine.Summary{NumSent: 10, NumCompleted: 9},
	}))

	srv := statusapi.New(statusapi.Config{Addr: "127.0.0.1:0", Store: store}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var rows []models.RunRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10), rows[0].NumSent)
}

func TestRunsEndpointEmptyWithoutStore(t *testing.T) {
	srv := statusapi.New(statusapi.Config{Addr: "127.0.0.1:0"}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var rows []models.RunRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Empty(t, rows)
}
