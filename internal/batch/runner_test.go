package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/archetype-cli/internal/classify"
	"github.com/sells-group/archetype-cli/internal/cost"
	"github.com/sells-group/archetype-cli/internal/founding"
	"github.com/sells-group/archetype-cli/internal/model"
	"github.com/sells-group/archetype-cli/internal/table"
	"github.com/sells-group/archetype-cli/internal/taxonomy"
)

type funcClassifier func(ctx context.Context, e model.Entity) (model.Result, error)

func (f funcClassifier) Classify(ctx context.Context, e model.Entity) (model.Result, error) {
	return f(ctx, e)
}

type countingCheckpointer struct {
	inner   Checkpointer
	saves   int
	removes int
	lastLen int
}

func (c *countingCheckpointer) Save(t *table.Table) error {
	c.saves++
	c.lastLen = t.Len()
	return c.inner.Save(t)
}
func (c *countingCheckpointer) Load() (*table.Table, error) { return c.inner.Load() }
func (c *countingCheckpointer) Remove() error {
	c.removes++
	return c.inner.Remove()
}
func (c *countingCheckpointer) Path() string { return c.inner.Path() }

func keywordClassifier() classify.Classifier {
	return classify.NewKeyword(taxonomy.Default())
}

func rowsTable(n int) *table.Table {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("Company %d", i), "Online marketplace for brokers"}
	}
	return table.New([]string{"Name", "Description"}, rows)
}

func fileCheckpointer(t *testing.T) *FileCheckpointer {
	t.Helper()
	cp, err := NewFileCheckpointer(filepath.Join(t.TempDir(), "progress_backup.csv"))
	require.NoError(t, err)
	return cp
}

func TestRun_KeywordOutput(t *testing.T) {
	in := table.New(
		[]string{"Name", "About", "Industries"},
		[][]string{
			{"Acme", "We are an AI-driven automation platform with machine learning for claims", ""},
			{"Beta", "", "Insurance"},
			{"Gamma", "", ""},
		},
	)
	out, err := NewRunner(keywordClassifier(), nil, nil, Options{NameColumn: "Name", DescColumn: "About"}).
		Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, append([]string{"Name", "About", "Industries"}, ResultColumns...), out.Table.Columns)
	assert.Equal(t, []string{"Disruptors", "High", "automation, ai-driven, machine learning", "", "", ""}, out.Table.Rows[0][3:])
	assert.Equal(t, "Traditional / Generalist", out.Table.Rows[1][3])
	assert.Equal(t, "Unclassified", out.Table.Rows[2][3])

	assert.Equal(t, 3, out.Stats.Processed)
	assert.Equal(t, 3, out.Stats.Total)
	assert.NotEmpty(t, out.Stats.RunID)
	assert.False(t, out.Stats.Stopped)
	assert.False(t, out.Corrections.Applied())

	// Input table is untouched.
	assert.Len(t, in.Columns, 3)
}

func TestRun_MissingColumnIsInputError(t *testing.T) {
	var calls int
	c := funcClassifier(func(context.Context, model.Entity) (model.Result, error) {
		calls++
		return model.Result{}, nil
	})
	_, err := NewRunner(c, nil, nil, Options{NameColumn: "Name", DescColumn: "Summary"}).
		Run(context.Background(), rowsTable(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `description column "Summary" not found`)
	assert.Zero(t, calls)
}

func TestRun_AutoDetectsColumns(t *testing.T) {
	var names []string
	c := funcClassifier(func(_ context.Context, e model.Entity) (model.Result, error) {
		names = append(names, e.Name)
		assert.Equal(t, "Long text", e.Text)
		return model.Result{Archetype: model.Enablers, Confidence: model.ConfidenceMedium}, nil
	})
	in := table.New([]string{"Company", "Website", "Full Description"}, [][]string{{"Acme", "acme.io", "Long text"}})
	_, err := NewRunner(c, nil, nil, Options{}).Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme"}, names)
}

func TestRun_RowFailuresAreIsolated(t *testing.T) {
	c := funcClassifier(func(_ context.Context, e model.Entity) (model.Result, error) {
		switch e.Name {
		case "Company 1":
			return model.Result{}, errors.New(strings.Repeat("x", 300))
		case "Company 2":
			panic("nil map")
		}
		return model.Result{Archetype: model.Connectors, Confidence: model.ConfidenceMedium}, nil
	})
	out, err := NewRunner(c, nil, nil, Options{}).Run(context.Background(), rowsTable(4))
	require.NoError(t, err)

	require.Len(t, out.Results, 4)
	assert.Equal(t, model.Connectors, out.Results[0].Archetype)
	assert.Equal(t, model.ProcessingError, out.Results[1].Archetype)
	assert.Equal(t, model.ConfidenceLow, out.Results[1].Confidence)
	assert.Len(t, out.Results[1].Evidence, 100)
	assert.Equal(t, model.ProcessingError, out.Results[2].Archetype)
	assert.Equal(t, "nil map", out.Results[2].Evidence)
	assert.Equal(t, model.Connectors, out.Results[3].Archetype)
	assert.Equal(t, 2, out.Stats.Errors)
	assert.NotNil(t, out.Results[0].Secondary, "normalized")
}

func TestRun_CheckpointEveryFive(t *testing.T) {
	cp := &countingCheckpointer{inner: fileCheckpointer(t)}
	out, err := NewRunner(keywordClassifier(), nil, nil, Options{
		Checkpoint:      cp,
		CheckpointEvery: 5,
	}).Run(context.Background(), rowsTable(100))
	require.NoError(t, err)

	assert.Equal(t, 20, cp.saves)
	assert.Equal(t, 20, out.Stats.Checkpoints)
	assert.Equal(t, 100, cp.lastLen)
	assert.Equal(t, 1, cp.removes)
	_, statErr := os.Stat(cp.Path())
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "checkpoint removed after a full run")
}

func TestRun_CheckpointFailureIsWarning(t *testing.T) {
	cp, err := NewFileCheckpointer(filepath.Join(t.TempDir(), "missing-dir", "cp.csv"))
	require.NoError(t, err)

	out, err := NewRunner(keywordClassifier(), nil, nil, Options{Checkpoint: cp, CheckpointEvery: 1}).
		Run(context.Background(), rowsTable(3))
	require.NoError(t, err)
	assert.Equal(t, 3, out.Stats.Processed)
	assert.Zero(t, out.Stats.Checkpoints)
}

func TestRun_StopKeepsCheckpointAndResumes(t *testing.T) {
	cp := fileCheckpointer(t)
	in := rowsTable(10)

	var seen int
	stop := func() bool { return seen >= 7 }
	counting := funcClassifier(func(ctx context.Context, e model.Entity) (model.Result, error) {
		seen++
		return keywordClassifier().Classify(ctx, e)
	})

	out, err := NewRunner(counting, nil, nil, Options{Checkpoint: cp, CheckpointEvery: 5, Stop: stop}).
		Run(context.Background(), in)
	require.NoError(t, err)
	assert.True(t, out.Stats.Stopped)
	assert.Equal(t, 7, out.Stats.Processed)
	assert.Equal(t, 7, out.Table.Len())

	snap, err := cp.Load()
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 7, snap.Len())

	seen = 0
	out, err = NewRunner(counting, nil, nil, Options{Checkpoint: cp, CheckpointEvery: 5, Resume: true}).
		Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 3, seen, "only the remaining rows are classified")
	assert.Equal(t, 7, out.Stats.Resumed)
	assert.Equal(t, 10, out.Stats.Processed)
	assert.Equal(t, model.SourceCheckpoint, out.Results[0].Source)
	assert.Equal(t, model.Connectors, out.Results[0].Archetype)
	assert.Equal(t, 10, out.Table.Len())

	snap, err = cp.Load()
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestRun_ResumeRejectsForeignCheckpoint(t *testing.T) {
	cp := fileCheckpointer(t)
	other := table.New([]string{"Name", "Description"}, [][]string{{"Someone else", "x"}})
	require.NoError(t, cp.Save(other.WithColumns(ResultColumns, [][]string{{"Enablers", "High", "", "", "", ""}})))

	_, err := NewRunner(keywordClassifier(), nil, nil, Options{Checkpoint: cp, Resume: true}).
		Run(context.Background(), rowsTable(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match input")
}

func TestRun_ContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := funcClassifier(func(_ context.Context, e model.Entity) (model.Result, error) {
		if e.Name == "Company 2" {
			cancel()
		}
		return model.Result{Archetype: model.Enablers, Confidence: model.ConfidenceMedium}, nil
	})
	out, err := NewRunner(c, nil, nil, Options{}).Run(ctx, rowsTable(5))
	require.NoError(t, err)
	assert.True(t, out.Stats.Stopped)
	assert.Equal(t, 2, out.Stats.Processed)
}

func TestRun_LimitAndProgress(t *testing.T) {
	var updates []model.RunStats
	out, err := NewRunner(keywordClassifier(), nil, nil, Options{
		Limit:    4,
		Progress: func(s model.RunStats) { updates = append(updates, s) },
	}).Run(context.Background(), rowsTable(10))
	require.NoError(t, err)
	assert.Equal(t, 4, out.Stats.Total)
	require.Len(t, updates, 4)
	assert.Equal(t, 1, updates[0].Processed)
	assert.InDelta(t, 100.0, updates[3].Percent(), 1e-9)
}

func TestRun_FoundingCorrection(t *testing.T) {
	in := table.New(
		[]string{"Name", "Description", "Founded"},
		[][]string{
			{"Old Insurer", "peer-to-peer parametric cover", "2005"},
			{"New Insurer", "peer-to-peer parametric cover", "2015"},
		},
	)
	out, err := NewRunner(keywordClassifier(), founding.NewCorrector(2010, 0.3), nil, Options{}).
		Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1, out.Stats.Reclassified)
	assert.Equal(t, append(append([]string{"Name", "Description", "Founded"}, ResultColumns...), CorrectionColumns...), out.Table.Columns)

	old := out.Table.Record(0)
	v, _ := old.Value(ColArchetype)
	assert.Equal(t, "Traditional / Generalist", v)
	v, _ = old.Value(ColInitial)
	assert.Equal(t, "Innovators", v)
	v, _ = old.Value(ColAgeCorrected)
	assert.Equal(t, "true", v)
	v, _ = old.Value(ColFoundedYear)
	assert.Equal(t, "2005", v)

	recent := out.Table.Record(1)
	v, _ = recent.Value(ColArchetype)
	assert.Equal(t, "Innovators", v)
	v, _ = recent.Value(ColAgeCorrected)
	assert.Equal(t, "false", v)
}

func TestRun_RemoteCostPerCall(t *testing.T) {
	c := funcClassifier(func(_ context.Context, e model.Entity) (model.Result, error) {
		if e.Name == "Company 1" {
			return model.FailedResult(model.FailureAPI, errors.New("timeout"), "Error: ", 80), nil
		}
		return model.Result{Archetype: model.Enablers, Confidence: model.ConfidenceHigh, Source: model.SourceRemote}, nil
	})
	calc := cost.NewCalculator(nil, "", 0.0002)
	out, err := NewRunner(c, nil, calc, Options{Mode: "ai"}).Run(context.Background(), rowsTable(3))
	require.NoError(t, err)
	assert.InDelta(t, 0.0004, out.Stats.Cost, 1e-12)
	assert.Equal(t, 1, out.Stats.Errors)
	assert.Equal(t, "ai", out.Stats.Mode)
}
