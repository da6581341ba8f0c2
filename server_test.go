package main

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trajectory.report/internal/db"
	"github.com/banshee-data/trajectory.report/internal/pipeline"
	"github.com/banshee-data/trajectory.report/internal/trace"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	store, err := db.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tr := trace.New(2)
	require.NoError(t, tr.SetFloats("x", []float64{0, 10}))
	require.NoError(t, tr.SetFloats("y", []float64{0, 0}))
	require.NoError(t, tr.SetFloats("dt", []float64{math.NaN(), 1}))
	require.NoError(t, tr.SetFloats("Geschwindigkeit in m/s", []float64{5, 6}))

	id, err := store.RecordRun("trip.csv", "2024-04-02", &pipeline.Config{}, 5, tr)
	require.NoError(t, err)

	return NewServer(store), id
}

func TestListRuns(t *testing.T) {
	srv, id := testServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var runs []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, id, runs[0]["id"])
	assert.Equal(t, "trip.csv", runs[0]["source"])
	assert.Equal(t, float64(2), runs[0]["output_rows"])
}

func TestListRunsRejectsPost(t *testing.T) {
	srv, _ := testServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/runs", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRunDetail(t *testing.T) {
	srv, id := testServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var detail map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, id, detail["id"])
	assert.Equal(t, "trip.csv", detail["source"])
}

func TestRunChart(t *testing.T) {
	srv, id := testServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/"+id+"/chart", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "trip.csv 2024-04-02")
	assert.Contains(t, rec.Body.String(), "by speed")
}

func TestRunChartUnknownRun(t *testing.T) {
	srv, _ := testServer(t)

	rec := httptest.NewRecorder()
	srv.ServeMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/nope/chart", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
