package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/shootbench/internal/bench"
)

func sampleResults() []bench.Result {
	return []bench.Result{
		{
			Operation: bench.OpSolve, Implementation: "native", Trials: 3,
			Avg: 2, Min: 1, Max: 3,
			Durations: []time.Duration{time.Millisecond, 2 * time.Millisecond, 3 * time.Millisecond},
		},
		{
			Operation: bench.OpCalc, Implementation: "native", Trials: 3,
			Avg: 0.5, Min: 0.5, Max: 0.5,
			Durations: []time.Duration{500 * time.Microsecond, 500 * time.Microsecond, 500 * time.Microsecond},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.Save(3, 200, 1, sampleResults())
	require.NoError(t, err)
	_, err = uuid.Parse(runID)
	assert.NoError(t, err, "run id should be a uuid")

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, runID, meta.ID)
	assert.Equal(t, 3, meta.Trials)
	assert.Equal(t, 200, meta.Nodes)
	require.Len(t, meta.Results, 2)
	assert.Equal(t, bench.OpSolve, meta.Results[0].Operation)
	assert.Equal(t, 2.0, meta.Results[0].Avg)
	assert.Nil(t, meta.Results[0].Durations, "durations live in the csv only")

	d, err := st.LoadDurations(runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"native/Solver.Solve", "native/ShootingProblem.Calc"}, d.Columns)
	assert.InDeltaSlice(t, []float64{1, 2, 3}, d.Values["native/Solver.Solve"], 1e-9)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.5}, d.Values["native/ShootingProblem.Calc"], 1e-9)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	calls := 0
	st.now = func() time.Time {
		calls++
		return base.Add(-time.Duration(calls) * time.Hour)
	}

	first, err := st.Save(3, 10, 1, sampleResults())
	require.NoError(t, err)
	second, err := st.Save(3, 10, 1, sampleResults())
	require.NoError(t, err)

	runs, err := st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID, "older run first")
	assert.Equal(t, first, runs[1].ID)
}

func TestStoreListSkipsJunk(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "broken"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken", metadataFile), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), nil, 0644))

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	_, err := st.Load("missing")
	assert.Error(t, err)
	_, err = st.LoadDurations("missing")
	assert.Error(t, err)
}

func TestStoreExport(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(3, 200, 1, sampleResults())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, st.Export(&buf, runID))

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, runID, out["id"])
	assert.Contains(t, out, "durations_ms")
	assert.Contains(t, out, "results")
}
