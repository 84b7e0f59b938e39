// Package batch runs a whole table through the classifier, one row at a time.
package batch

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/archetype-cli/internal/classify"
	"github.com/sells-group/archetype-cli/internal/cost"
	"github.com/sells-group/archetype-cli/internal/founding"
	"github.com/sells-group/archetype-cli/internal/model"
	"github.com/sells-group/archetype-cli/internal/table"
)

// processingErrorLimit caps the error text kept for a failed row.
const processingErrorLimit = 100

// Options configures a run.
type Options struct {
	// NameColumn and DescColumn select the input columns. Empty values are
	// auto-detected.
	NameColumn string
	DescColumn string

	// Checkpoint is nil to disable checkpointing.
	Checkpoint      Checkpointer
	CheckpointEvery int
	// Resume restores rows from an existing checkpoint before classifying.
	Resume bool

	// Limit classifies only the first Limit rows when positive.
	Limit int

	// Mode is recorded in the run statistics.
	Mode string

	// Progress is called after every row.
	Progress func(model.RunStats)
	// Stop is polled between rows. Returning true ends the run early.
	Stop func() bool
}

// Output is the result of a run.
type Output struct {
	Table       *table.Table
	Results     []model.Result
	Stats       model.RunStats
	Corrections founding.Report
}

// Runner classifies tables.
type Runner struct {
	classifier classify.Classifier
	corrector  *founding.Corrector
	calc       *cost.Calculator
	opts       Options

	now func() time.Time
}

// NewRunner creates a runner. corrector and calc may be nil.
func NewRunner(c classify.Classifier, corrector *founding.Corrector, calc *cost.Calculator, opts Options) *Runner {
	if corrector == nil {
		corrector = founding.NewCorrector(0, 0)
	}
	if calc == nil {
		calc = cost.NewCalculator(nil, "", 0)
	}
	return &Runner{
		classifier: c,
		corrector:  corrector,
		calc:       calc,
		opts:       opts,
		now:        time.Now,
	}
}

// Run classifies every row of in, in order. Input problems (missing columns,
// unusable checkpoint) are returned before any row is classified; per-row
// failures become Processing Error rows.
func (r *Runner) Run(ctx context.Context, in *table.Table) (*Output, error) {
	in = in.Head(r.opts.Limit)

	nameCol, descCol, err := r.columns(in)
	if err != nil {
		return nil, err
	}

	stats := model.RunStats{
		RunID: uuid.NewString(),
		Mode:  r.opts.Mode,
		Total: in.Len(),
	}
	log := zap.L().With(zap.String("run_id", stats.RunID))

	results := make([]model.Result, 0, in.Len())
	if r.opts.Resume && r.opts.Checkpoint != nil {
		restored, err := r.restore(in, nameCol)
		if err != nil {
			return nil, err
		}
		results = append(results, restored...)
		stats.Resumed = len(restored)
		stats.Processed = len(restored)
		for _, res := range restored {
			if res.Failed() {
				stats.Errors++
			}
		}
		if len(restored) > 0 {
			log.Info("batch: resumed from checkpoint",
				zap.String("path", r.opts.Checkpoint.Path()),
				zap.Int("rows", len(restored)))
		}
	}

	log.Info("batch: starting run",
		zap.Int("rows", stats.Total),
		zap.String("mode", stats.Mode),
		zap.String("name_column", nameCol),
		zap.String("description_column", descCol))

	start := r.now()
	for i := len(results); i < in.Len(); i++ {
		if ctx.Err() != nil || (r.opts.Stop != nil && r.opts.Stop()) {
			stats.Stopped = true
			break
		}

		res := r.classifyRow(ctx, in.Record(i), nameCol, descCol)
		if ctx.Err() != nil {
			// The row was cut off mid-call; leave it for a resumed run.
			stats.Stopped = true
			break
		}
		results = append(results, res)

		stats.Processed++
		if res.Failed() {
			stats.Errors++
		}
		if res.Source == model.SourceFallback {
			stats.Fallbacks++
		}
		stats.Cost += r.calc.PerCall(res)
		stats.Elapsed = r.now().Sub(start)

		if r.opts.Progress != nil {
			r.opts.Progress(stats)
		}

		if r.opts.Checkpoint != nil && r.opts.CheckpointEvery > 0 && stats.Processed%r.opts.CheckpointEvery == 0 {
			r.saveCheckpoint(log, in, results, &stats)
		}
	}
	stats.Elapsed = r.now().Sub(start)

	if stats.Stopped {
		// Keep the snapshot current so the run can be resumed.
		if r.opts.Checkpoint != nil && len(results) > stats.Resumed {
			r.saveCheckpoint(log, in, results, &stats)
		}
		log.Warn("batch: run stopped early",
			zap.Int("processed", stats.Processed),
			zap.Int("total", stats.Total))
		partial := in.Slice(0, len(results))
		return &Output{
			Table:   partial.WithColumns(ResultColumns, cellsFor(results)),
			Results: results,
			Stats:   stats,
		}, nil
	}

	rep := r.corrector.Apply(in, results)
	stats.Reclassified = rep.Count

	out := in.WithColumns(ResultColumns, cellsFor(results))
	if rep.Applied() {
		values := make([][]string, len(rep.Rows))
		for i, row := range rep.Rows {
			values[i] = correctionCells(row)
		}
		out = out.WithColumns(CorrectionColumns, values)
	}

	if r.opts.Checkpoint != nil {
		if err := r.opts.Checkpoint.Remove(); err != nil {
			log.Warn("batch: remove checkpoint", zap.Error(err))
		}
	}

	log.Info("batch: run complete",
		zap.Int("processed", stats.Processed),
		zap.Int("errors", stats.Errors),
		zap.Int("fallbacks", stats.Fallbacks),
		zap.Int("reclassified", stats.Reclassified),
		zap.Float64("cost_usd", stats.Cost),
		zap.Duration("elapsed", stats.Elapsed))

	return &Output{
		Table:       out,
		Results:     results,
		Stats:       stats,
		Corrections: rep,
	}, nil
}

func (r *Runner) columns(in *table.Table) (string, string, error) {
	nameCol := r.opts.NameColumn
	if nameCol == "" {
		nameCol = table.GuessNameColumn(in)
	}
	descCol := r.opts.DescColumn
	if descCol == "" {
		descCol = table.GuessDescriptionColumn(in)
	}
	if !in.HasColumn(nameCol) {
		return "", "", eris.Errorf("batch: name column %q not found", nameCol)
	}
	if !in.HasColumn(descCol) {
		return "", "", eris.Errorf("batch: description column %q not found", descCol)
	}
	return nameCol, descCol, nil
}

func (r *Runner) classifyRow(ctx context.Context, rec table.Record, nameCol, descCol string) (res model.Result) {
	name, _ := rec.Value(nameCol)

	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("batch: row panicked",
				zap.Int("row", rec.Index()),
				zap.String("company", name),
				zap.Any("panic", p))
			res = model.FailedResult(model.FailureProcessing, fmt.Errorf("%v", p), "", processingErrorLimit)
		}
	}()

	industries, _ := rec.Value(classify.IndustriesField)
	entity := model.Entity{
		Name:       name,
		Text:       classify.AssembleText(rec, descCol),
		Industries: industries,
	}

	res, err := r.classifier.Classify(ctx, entity)
	if err != nil {
		zap.L().Error("batch: row failed",
			zap.Int("row", rec.Index()),
			zap.String("company", name),
			zap.Error(err))
		return model.FailedResult(model.FailureProcessing, err, "", processingErrorLimit)
	}
	return normalize(res)
}

// normalize fills defaults a classifier may leave unset.
func normalize(res model.Result) model.Result {
	if res.Archetype == "" {
		res.Archetype = model.Unclassified
	}
	if _, ok := model.ParseConfidence(string(res.Confidence)); !ok {
		res.Confidence = model.ConfidenceLow
	}
	if res.Secondary == nil {
		res.Secondary = []model.Archetype{}
	}
	if res.Capabilities == nil {
		res.Capabilities = []model.Capability{}
	}
	return res
}

func (r *Runner) saveCheckpoint(log *zap.Logger, in *table.Table, results []model.Result, stats *model.RunStats) {
	snap := in.Slice(0, len(results)).WithColumns(ResultColumns, cellsFor(results))
	if err := r.opts.Checkpoint.Save(snap); err != nil {
		log.Warn("batch: checkpoint failed", zap.Error(err))
		return
	}
	stats.Checkpoints++
	log.Debug("batch: checkpoint saved",
		zap.String("path", r.opts.Checkpoint.Path()),
		zap.Int("rows", len(results)))
}

// restore loads checkpointed results for a prefix of in. The checkpoint must
// have the input columns followed by the result columns, and its name column
// must match the input row for row.
func (r *Runner) restore(in *table.Table, nameCol string) ([]model.Result, error) {
	snap, err := r.opts.Checkpoint.Load()
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}

	cols := append(append([]string(nil), in.Columns...), ResultColumns...)
	if !slices.Equal(snap.Columns, cols) {
		return nil, eris.Errorf("batch: checkpoint %s does not match the input columns", r.opts.Checkpoint.Path())
	}
	if snap.Len() > in.Len() {
		return nil, eris.Errorf("batch: checkpoint %s has %d rows, input has %d", r.opts.Checkpoint.Path(), snap.Len(), in.Len())
	}

	first := len(in.Columns)
	results := make([]model.Result, 0, snap.Len())
	for i, row := range snap.Rows {
		got, _ := snap.Cell(i, nameCol)
		want, _ := in.Cell(i, nameCol)
		if got != want {
			return nil, eris.Errorf("batch: checkpoint row %d (%q) does not match input (%q)", i, got, want)
		}
		res, ok := resultFromCells(row[first:])
		if !ok {
			return nil, eris.Errorf("batch: checkpoint row %d has no readable result", i)
		}
		results = append(results, res)
	}
	return results, nil
}

func cellsFor(results []model.Result) [][]string {
	out := make([][]string, len(results))
	for i, res := range results {
		out[i] = resultCells(res)
	}
	return out
}
