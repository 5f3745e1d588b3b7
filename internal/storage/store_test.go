package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/san-kum/pbpksim/internal/dynamo"
	"github.com/san-kum/pbpksim/internal/integrators"
	"github.com/san-kum/pbpksim/internal/pbpk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrajectory() *pbpk.Trajectory {
	return &pbpk.Trajectory{
		Times:        []float64{0, 1},
		States:       []dynamo.State{{3000, 0}, {2500.5, 12.25}},
		Compartments: []string{"blood", "salivary"},
		Solver:       integrators.BD2,
		Stats:        integrators.Stats{Steps: 20, Evaluations: 140},
		Warnings: []pbpk.CapacityWarning{
			{Step: 1, Time: 1, Compartment: "salivary", Activity: 12.25, Capacity: 10},
		},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.Save(RunMetadata{
		Model:   "siebinga",
		Subject: "xcat-female",
		Time:    1,
		Dt:      1,
		Metrics: map[string]float64{"auc_blood": 2750.25},
	}, sampleTrajectory())
	require.NoError(t, err)
	assert.Len(t, runID, 36)

	meta, err := st.Load(runID)
	require.NoError(t, err)
	assert.Equal(t, "siebinga", meta.Model)
	assert.Equal(t, "BD2", meta.Solver)
	assert.Equal(t, []string{"blood", "salivary"}, meta.Compartments)
	assert.Equal(t, 2750.25, meta.Metrics["auc_blood"])
	assert.Equal(t, 20, meta.Stats.Steps)
	require.Len(t, meta.Warnings, 1)
	assert.Equal(t, "salivary", meta.Warnings[0].Compartment)

	tr, err := st.LoadTrajectory(runID[:8])
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, tr.Times)
	assert.Equal(t, []string{"blood", "salivary"}, tr.Compartments)
	assert.InDelta(t, 12.25, tr.States[1][1], 1e-9)
	assert.Equal(t, integrators.BD2, tr.Solver)
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	for i := 0; i < 2; i++ {
		_, err := st.Save(RunMetadata{Model: "siebinga"}, sampleTrajectory())
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(st.Dir(), "stray.txt"), []byte("x"), 0644))

	runs, err = st.List()
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.False(t, runs[0].Timestamp.Before(runs[1].Timestamp))
}

func TestStoreListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "nope")).List()
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	_, err := st.Load("does-not-exist")
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = st.Load("")
	assert.Error(t, err)
}

func TestStoreFileStructure(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	runID, err := st.Save(RunMetadata{Model: "siebinga"}, sampleTrajectory())
	require.NoError(t, err)

	runDir := filepath.Join(st.Dir(), runID)
	assert.FileExists(t, filepath.Join(runDir, "metadata.json"))
	assert.FileExists(t, filepath.Join(runDir, "states.csv"))

	data, err := os.ReadFile(filepath.Join(runDir, "states.csv"))
	require.NoError(t, err)
	first := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t, "time [hr],activity blood [MBq],activity salivary [MBq]", first)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("t,x\n0,1\n"))
	assert.Error(t, err)
	_, err = ReadCSV(strings.NewReader("time [hr],activity a [MBq]\n0,abc\n"))
	assert.Error(t, err)
}

func TestExportJSON(t *testing.T) {
	tr := sampleTrajectory()
	data := NewExport(RunMetadata{Model: "siebinga", Subject: "s", Time: 1, Dt: 1, Metrics: map[string]float64{"retention": 0.84}}, tr)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, data))

	var back ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "BD2", back.Solver)
	assert.Equal(t, 20, back.Steps)
	assert.Equal(t, [][]float64{{3000, 0}, {2500.5, 12.25}}, back.States)
	assert.Equal(t, 0.84, back.Metrics["retention"])

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, ExportJSON(path, data))
	assert.FileExists(t, path)
}
