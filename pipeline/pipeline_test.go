package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/korjavin/integralsheet/cas"
	"github.com/korjavin/integralsheet/config"
	"github.com/korjavin/integralsheet/database"
	"github.com/korjavin/integralsheet/models"
)

type countingIntegrator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingIntegrator) Integrate(_ context.Context, expr, variable, lower, upper string) (cas.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return cas.Result{}, c.err
	}
	return cas.Result{Exact: "2", Decimal: models.FloatPtr(2)}, nil
}

func (c *countingIntegrator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func integral(v, lo, hi string, order int) models.Integral {
	return models.Integral{Variable: v, Limits: models.Limits{Lower: lo, Upper: hi}, Order: order}
}

func testAssignment() *models.Assignment {
	return &models.Assignment{
		Metadata: models.Metadata{
			Course:     models.Course{Level: 3},
			Assignment: models.AssignmentInfo{Type: "Tarea", Number: 18, Year: 2025, Iteration: 1},
			OutputSettings: models.OutputSettings{
				DecimalPrecision: models.IntPtr(2),
				EquationFormat:   &models.EquationFormat{ShowEquation: boolPtr(true)},
			},
		},
		Exercises: []models.Exercise{
			{ID: "1", Type: "integral", Function: "1", Integrals: []models.Integral{integral("x", "0", "1", 1), integral("y", "0", "2", 2)}},
			{ID: "2", Type: "integral", Function: "x"},
			{ID: "3", Type: "integral", Function: "r", Integrals: []models.Integral{integral("r", "0", "1", 1), integral("theta", "0", "2*pi", 2)}},
		},
	}
}

func boolPtr(b bool) *bool { return &b }

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	dir := t.TempDir()
	cfg.Output.Dir = filepath.Join(dir, "output")
	cfg.Output.TempDir = filepath.Join(dir, "temp")
	cfg.Workers = 2
	return cfg
}

func openStore(t *testing.T) *database.DB {
	db, err := database.New(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestGenerateFilename(t *testing.T) {
	meta := testAssignment().Metadata
	assert.Equal(t, "C3_2025_T18_integrales_v1.tex", GenerateFilename(meta, "tex"))
	assert.Equal(t, "C3_2025_T18_integrales_v1.json", GenerateFilename(meta, ".json"))
	assert.Equal(t, "C3_2025_T18_integrales_v1", GenerateFilename(meta, ""))
}

func TestDisplaySettings(t *testing.T) {
	defaults := config.DefaultConfig().Display
	defaults.ShowQuantityLabel = true

	got := DisplaySettings(defaults, models.OutputSettings{
		Units:          models.StringPtr("cm"),
		ShowSteps:      boolPtr(true),
		EquationFormat: &models.EquationFormat{ShowEquation: boolPtr(true), ShowQuantityLabel: boolPtr(false)},
	})

	want := models.DisplaySettings{Units: "cm", DecimalPrecision: 4, ShowSteps: true, ShowEquation: true}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("display settings mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "u", DisplaySettings(config.DisplayConfig{}, models.OutputSettings{}).Units)
}

func TestProcess(t *testing.T) {
	in := &countingIntegrator{}
	p := NewProcessor(testConfig(t), in, nil, zaptest.NewLogger(t))

	out, err := p.Process(context.Background(), testAssignment(), "data/input/C3.json")

	require.NoError(t, err)
	require.Len(t, out.Exercises, 3)
	assert.Equal(t, []models.ID{"1", "2", "3"}, []models.ID{out.Exercises[0].ID, out.Exercises[1].ID, out.Exercises[2].ID})

	first := out.Exercises[0]
	assert.Equal(t, models.Cartesian, first.CoordinateSystem)
	require.True(t, first.Solution.Available())
	assert.Equal(t, "Area", first.Solution.Quantity())
	assert.Equal(t, "u^2", *first.Solution.Units)
	assert.Equal(t, 2, first.DisplaySettings.DecimalPrecision)
	assert.True(t, first.DisplaySettings.ShowEquation)
	assert.Equal(t, `\int_{0}^{2} \int_{0}^{1} 1 \, dx dy`, *first.LaTeX.IntegralSetup)
	assert.Equal(t, `2 = 2.00 \ \text{u}^{2}`, *first.LaTeX.FinalResult)

	broken := out.Exercises[1]
	assert.False(t, broken.Solution.Available())
	assert.Empty(t, broken.CoordinateSystem)
	require.NotNil(t, broken.DisplaySettings)

	polar := out.Exercises[2]
	assert.Equal(t, models.Polar, polar.CoordinateSystem)
	assert.Equal(t, "Area", polar.Solution.Quantity())

	info := out.Metadata.ProcessingInfo
	require.NotNil(t, info)
	assert.Equal(t, 3, info.TotalExercises)
	assert.Equal(t, 3, info.IndividualExercises)
	assert.Equal(t, 0, info.GroupedExercises)
	assert.Equal(t, []string{"integral"}, info.ExerciseTypes)
	require.Len(t, info.Errors, 1)
	assert.Contains(t, info.Errors[0], "Error in exercise 2")
	assert.NotEmpty(t, info.RunID)

	require.NotNil(t, out.Metadata.FileInfo)
	assert.Equal(t, "C3.json", out.Metadata.FileInfo.SourceFile)
	assert.Equal(t, "C3_2025_T18_integrales_v1", out.Metadata.FileInfo.BaseName)
	assert.True(t, out.IsIntermediate())
	assert.Equal(t, 4, in.count())
}

func TestProcess_UsesCache(t *testing.T) {
	store := openStore(t)
	in := &countingIntegrator{}
	p := NewProcessor(testConfig(t), in, store, zaptest.NewLogger(t))

	_, err := p.Process(context.Background(), testAssignment(), "a.json")
	require.NoError(t, err)
	calls := in.count()

	out, err := p.Process(context.Background(), testAssignment(), "a.json")
	require.NoError(t, err)
	assert.Equal(t, calls, in.count(), "second run is served from the cache")
	assert.True(t, out.Exercises[0].Solution.Available())

	stats, err := store.GetRunStats()
	require.NoError(t, err)
	assert.Equal(t, models.RunStats{Runs: 2, Exercises: 6, Failed: 2}, stats)
}

func TestProcess_CASFailureKeepsExercise(t *testing.T) {
	p := NewProcessor(testConfig(t), &countingIntegrator{err: cas.ErrCAS}, nil, zaptest.NewLogger(t))

	out, err := p.Process(context.Background(), testAssignment(), "a.json")

	require.NoError(t, err)
	assert.Len(t, out.Metadata.ProcessingInfo.Errors, 3)
	first := out.Exercises[0]
	assert.False(t, first.Solution.Available())
	assert.Nil(t, first.Solution.Decimal)
	assert.Equal(t, "Area", first.Solution.Quantity(), "classification does not need the solution")
}

func TestProcess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewProcessor(testConfig(t), &countingIntegrator{}, nil, nil)

	_, err := p.Process(ctx, testAssignment(), "a.json")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestGenerate(t *testing.T) {
	cfg := testConfig(t)
	input := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, SaveJSON(input, testAssignment()))
	p := NewProcessor(cfg, &countingIntegrator{}, nil, zaptest.NewLogger(t))

	out, err := p.Generate(context.Background(), input, false)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Output.TempDir, "C3_2025_T18_integrales_v1.json"), out.Intermediate)
	assert.Equal(t, filepath.Join(cfg.Output.Dir, "C3_2025_T18_integrales_v1.tex"), out.TeX)
	assert.Empty(t, out.PDF)

	tex, err := os.ReadFile(out.TeX)
	require.NoError(t, err)
	assert.Contains(t, string(tex), `\rhead{Tarea 18}`)
	assert.Contains(t, string(tex), `\text{N/A}`)

	saved, err := LoadAssignment(out.Intermediate)
	require.NoError(t, err)
	assert.True(t, saved.IsIntermediate())
	assert.Len(t, saved.Exercises, 3)
}

func TestLoadAssignment_Errors(t *testing.T) {
	_, err := LoadAssignment(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = ParseAssignment([]byte("{"))
	assert.Error(t, err)

	a, err := ParseAssignment([]byte(`{"metadata":{"course":{"level":2}},"exercises":[{"id":7,"function":"x","integrals":[{"var":"x","limits":{"lower":"0","upper":"1"},"order":0}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, models.ID("7"), a.Exercises[0].ID)

	var roundTrip models.Assignment
	data, err := json.Marshal(a)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &roundTrip))
	assert.Equal(t, "x", roundTrip.Exercises[0].Integrals[0].Variable)
}
