package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atmosdata/metsync/internal/fetch"
	"github.com/atmosdata/metsync/internal/metrics"
	"github.com/atmosdata/metsync/internal/storage"
	"github.com/atmosdata/metsync/internal/validate"
	"github.com/atmosdata/metsync/pkg/logger"
)

// Route classifies where a processed object's bytes are written under the
// destination root.
type Route string

const (
	RouteRaw     Route = "raw"
	RouteValid   Route = "valid"
	RouteInvalid Route = "invalid"
)

// Outcome is the per-object result. Every listed object yields exactly
// one Outcome, even on unexpected failure.
type Outcome struct {
	Key      string
	Route    Route
	Success  bool
	Duration time.Duration
	Bytes    int64
	Err      error
}

// Summary aggregates a batch's outcomes.
type Summary struct {
	TotalFiles      int
	SuccessfulFiles int
	TotalBytes      int64
	Duration        time.Duration
	Outcomes        []Outcome
}

// FailedFiles returns the number of objects that did not complete
// successfully.
func (s Summary) FailedFiles() int {
	return s.TotalFiles - s.SuccessfulFiles
}

// SuccessRatePercent returns the success percentage rounded to two
// decimals, 0 for an empty batch.
func (s Summary) SuccessRatePercent() float64 {
	if s.TotalFiles == 0 {
		return 0
	}
	rate := float64(s.SuccessfulFiles) / float64(s.TotalFiles) * 100
	return math.Round(rate*100) / 100
}

// Config holds the coordinator's knobs.
type Config struct {
	WorkerCount int  // 1 runs the batch strictly sequentially
	Validate    bool // false skips validation and routes everything raw
	Namespace   string
}

// Coordinator fans the per-object pipeline (fetch -> validate -> place)
// out over a bounded worker pool and aggregates batch-level counters.
type Coordinator struct {
	fetcher *fetch.Fetcher
	dst     storage.Destination
	sink    metrics.Sink
	cfg     Config
}

// NewCoordinator creates a coordinator over the given fetcher,
// destination and metrics sink.
func NewCoordinator(fetcher *fetch.Fetcher, dst storage.Destination, sink metrics.Sink, cfg Config) *Coordinator {
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 1
	}
	if sink == nil {
		sink = metrics.Noop{}
	}
	return &Coordinator{fetcher: fetcher, dst: dst, sink: sink, cfg: cfg}
}

// Run executes the per-object pipeline for every ref. Objects are
// independent: one object's failure never cancels or corrupts siblings.
// Completion order is unspecified.
func (c *Coordinator) Run(ctx context.Context, refs []storage.ObjectInfo) Summary {
	start := time.Now()

	var (
		mu       sync.Mutex
		outcomes = make([]Outcome, 0, len(refs))
	)

	g := new(errgroup.Group)
	g.SetLimit(c.cfg.WorkerCount)
	for _, ref := range refs {
		ref := ref
		g.Go(func() error {
			out := c.processObject(ctx, ref)
			mu.Lock()
			outcomes = append(outcomes, out)
			mu.Unlock()
			c.emitObjectMetrics(ctx, out)
			return nil
		})
	}
	// Workers always return nil; Wait only synchronizes.
	_ = g.Wait()

	summary := summarize(outcomes, time.Since(start))
	c.emitBatchMetrics(ctx, summary)
	return summary
}

// processObject runs fetch -> [validate] -> place for one object and
// always produces an Outcome, recovering from panics.
func (c *Coordinator) processObject(ctx context.Context, ref storage.ObjectInfo) (out Outcome) {
	out = Outcome{Key: ref.Key, Route: RouteRaw}
	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
		if r := recover(); r != nil {
			out.Success = false
			out.Err = fmt.Errorf("unexpected failure processing %s: %v", ref.Key, r)
			logger.Log.Error().Str("key", ref.Key).Interface("panic", r).Msg("object processing panicked")
		}
	}()

	data, err := c.fetcher.Fetch(ctx, ref.Key)
	if err != nil {
		out.Err = err
		logger.Log.Error().Err(err).Str("key", ref.Key).Msg("fetch failed")
		return out
	}
	out.Bytes = int64(len(data))

	if !c.cfg.Validate {
		if err := c.place(ctx, RouteRaw, ref.Key, data); err != nil {
			out.Err = err
			return out
		}
		out.Success = true
		return out
	}

	verdict := c.validatePayload(ref.Key, data)
	if verdict.Valid {
		out.Route = RouteValid
		if err := c.place(ctx, RouteValid, ref.Key, data); err != nil {
			out.Err = err
			return out
		}
		out.Success = true
		return out
	}

	// Invalid payloads still travel to the destination, alongside a
	// structured error report, but count as failures.
	out.Route = RouteInvalid
	logger.Log.Warn().Str("key", ref.Key).
		Interface("errors", verdict.Errors).Msg("payload failed validation")
	if err := c.place(ctx, RouteInvalid, ref.Key, data); err != nil {
		out.Err = err
		return out
	}
	if err := c.placeReport(ctx, ref.Key, verdict); err != nil {
		out.Err = err
		return out
	}
	return out
}

// validatePayload stages the archive in a per-object scratch directory,
// extracts the tabular entry and shape-checks it. The scratch directory
// is removed on every exit path.
func (c *Coordinator) validatePayload(key string, data []byte) validate.Verdict {
	scratch, err := os.MkdirTemp("", "metsync-*")
	if err != nil {
		return validate.Verdict{Errors: []validate.Reason{{
			Kind:   validate.KindValidationError,
			Detail: fmt.Sprintf("failed to create scratch dir: %v", err),
		}}}
	}
	defer os.RemoveAll(scratch)

	archivePath := filepath.Join(scratch, filepath.Base(key))
	if err := os.WriteFile(archivePath, data, 0o644); err != nil {
		return validate.Verdict{Errors: []validate.Reason{{
			Kind:   validate.KindValidationError,
			Detail: fmt.Sprintf("failed to stage payload: %v", err),
		}}}
	}

	content, err := validate.ExtractCSVFile(archivePath)
	if err != nil {
		return validate.Verdict{Errors: []validate.Reason{{
			Kind:   validate.KindValidationError,
			Detail: fmt.Sprintf("failed to extract payload: %v", err),
		}}}
	}
	return validate.Validate(content)
}

func (c *Coordinator) place(ctx context.Context, route Route, key string, data []byte) error {
	return c.dst.Place(ctx, path.Join(string(route), key), data)
}

// placeReport writes the serialized verdict next to the invalid payload.
func (c *Coordinator) placeReport(ctx context.Context, key string, verdict validate.Verdict) error {
	report, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize error report for %s: %w", key, err)
	}
	return c.dst.Place(ctx, path.Join(string(RouteInvalid), key+".errors.json"), report)
}

func summarize(outcomes []Outcome, duration time.Duration) Summary {
	s := Summary{
		TotalFiles: len(outcomes),
		Duration:   duration,
		Outcomes:   outcomes,
	}
	for _, out := range outcomes {
		if out.Success {
			s.SuccessfulFiles++
		}
		s.TotalBytes += out.Bytes
	}
	return s
}

func (c *Coordinator) emitObjectMetrics(ctx context.Context, out Outcome) {
	status := "failure"
	if out.Success {
		status = "success"
	}
	dims := map[string]string{"Route": string(out.Route), "Status": status}
	c.sink.Put(ctx, c.cfg.Namespace, []metrics.Metric{
		{Name: "TransferDuration", Value: out.Duration.Seconds(), Unit: metrics.UnitSeconds, Dimensions: dims},
		{Name: "TransferredBytes", Value: float64(out.Bytes), Unit: metrics.UnitBytes, Dimensions: dims},
		{Name: "TransferCount", Value: 1, Unit: metrics.UnitCount, Dimensions: dims},
	})
}

func (c *Coordinator) emitBatchMetrics(ctx context.Context, s Summary) {
	if s.TotalFiles == 0 {
		// Sentinel so dashboards can distinguish "ran, nothing found"
		// from "did not run".
		c.sink.Put(ctx, c.cfg.Namespace, []metrics.Metric{
			{Name: "FilesDiscovered", Value: 0, Unit: metrics.UnitCount},
		})
		return
	}
	c.sink.Put(ctx, c.cfg.Namespace, []metrics.Metric{
		{Name: "FilesDiscovered", Value: float64(s.TotalFiles), Unit: metrics.UnitCount},
		{Name: "FilesSucceeded", Value: float64(s.SuccessfulFiles), Unit: metrics.UnitCount},
		{Name: "FilesFailed", Value: float64(s.FailedFiles()), Unit: metrics.UnitCount},
		{Name: "BatchBytes", Value: float64(s.TotalBytes), Unit: metrics.UnitBytes},
		{Name: "BatchDuration", Value: s.Duration.Seconds(), Unit: metrics.UnitSeconds},
		{Name: "SuccessRate", Value: s.SuccessRatePercent(), Unit: metrics.UnitPercent},
	})
}
