//go:build !integration

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexgraph/chainbench/internal/model"
	"github.com/lexgraph/chainbench/internal/store"
)

func newServeStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func TestRouterHealth(t *testing.T) {
	router := buildRouter(newServeStore(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouterListRuns(t *testing.T) {
	st := newServeStore(t)
	require.NoError(t, st.SaveRun(context.Background(), &model.EvalRun{
		ID:        "11111111-0000-0000-0000-000000000000",
		Model:     "mock",
		Steps:     []string{"s1", "s2"},
		Instances: 3,
	}))

	router := buildRouter(st)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Runs  []model.EvalRun `json:"runs"`
		Count int             `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "mock", body.Runs[0].Model)
}

func TestRouterListRunsInvalidLimit(t *testing.T) {
	router := buildRouter(newServeStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/runs?limit=zero", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouterGetRun(t *testing.T) {
	st := newServeStore(t)
	require.NoError(t, st.SaveRun(context.Background(), &model.EvalRun{
		ID:        "22222222-0000-0000-0000-000000000000",
		Label:     "gate-check",
		Model:     "mock",
		Steps:     []string{"s6", "s7"},
		Instances: 10,
		Voided:    2,
	}))

	router := buildRouter(st)

	req := httptest.NewRequest(http.MethodGet, "/api/runs/22222222-0000-0000-0000-000000000000", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var run model.EvalRun
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &run))
	assert.Equal(t, "gate-check", run.Label)
	assert.Equal(t, 2, run.Voided)
}

func TestRouterGetRunNotFound(t *testing.T) {
	router := buildRouter(newServeStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/runs/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
