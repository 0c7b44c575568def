package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/matclass/internal/metrics"
	"github.com/dgallion1/matclass/internal/navigate"
	"github.com/dgallion1/matclass/internal/store"
	"golang.org/x/sync/errgroup"
)

// Worker classifies the items of one job at a time.
type Worker struct {
	engines EngineFunc
	rec     Recorder
	log     *slog.Logger

	maxConcurrent int
}

func NewWorker(engines EngineFunc, rec Recorder, log *slog.Logger, maxConcurrent int) *Worker {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Worker{
		engines:       engines,
		rec:           rec,
		log:           log,
		maxConcurrent: maxConcurrent,
	}
}

// Process classifies every item of job with bounded concurrency. Item
// failures are recorded on the item; the job ends completed, partial or
// failed according to how many items failed.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "model", job.Model)
	job.SetStatus(StatusClassifying, "classifying")
	start := time.Now()

	eng := w.engines(job.Model)
	if eng == nil {
		log.Error("no engine for model")
		job.AddError(fmt.Sprintf("no engine for model %q", job.Model))
		job.SetStatus(StatusFailed, "classifying")
		return
	}

	var g errgroup.Group
	g.SetLimit(w.maxConcurrent)

	for i, item := range job.Items() {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			job.SetResult(i, w.classify(ctx, job, eng, item))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		job.AddError(fmt.Sprintf("cancelled: %s", err))
	}
	status := job.finish()
	snap := job.Snapshot()
	log.Info("batch finished",
		"status", status,
		"items", snap.Progress.Total,
		"resolved", snap.Progress.Resolved,
		"unresolved", snap.Progress.Unresolved,
		"failed", snap.Progress.Failed,
		"duration", time.Since(start),
	)
}

func (w *Worker) classify(ctx context.Context, job *Job, eng *navigate.Engine, item Item) ItemResult {
	out := ItemResult{ID: item.ID, Item: item.Description}
	desc := strings.TrimSpace(item.Description)
	if desc == "" {
		out.Error = "empty description"
		return out
	}

	start := time.Now()
	res, events := eng.Collect(ctx, desc)
	elapsed := time.Since(start)

	// A cancelled run ends at ROOT; count it as failed, not unresolved.
	if err := ctx.Err(); err != nil {
		out.Error = fmt.Sprintf("cancelled: %s", err)
		return out
	}

	out.Code = res.Code
	out.Description = res.Description
	out.Resolved = res.Resolved
	metrics.ObserveClassification("batch", res.Resolved, res.Depth(), res.Stats.Backtracks, elapsed)

	if w.rec != nil {
		rec := store.NewRecord(desc, job.Model, "batch", res, events, elapsed)
		id, err := w.rec.Save(ctx, rec)
		if err != nil {
			w.log.Warn("save classification failed", "job_id", job.ID, "item", item.ID, "error", err)
			job.AddError(fmt.Sprintf("item %s: save: %s", item.ID, err))
		} else {
			out.RecordID = id
		}
	}
	return out
}
