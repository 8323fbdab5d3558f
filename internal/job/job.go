package job

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/atmosdata/metsync/internal/batch"
	"github.com/atmosdata/metsync/internal/clock"
	"github.com/atmosdata/metsync/internal/config"
	"github.com/atmosdata/metsync/internal/fetch"
	"github.com/atmosdata/metsync/internal/metrics"
	"github.com/atmosdata/metsync/internal/secrets"
	"github.com/atmosdata/metsync/internal/storage"
	"github.com/atmosdata/metsync/pkg/logger"
)

// Body is the structured payload returned to the invocation trigger.
type Body struct {
	Success            bool     `json:"success"`
	Message            string   `json:"message"`
	Prefixes           []string `json:"prefixes,omitempty"`
	TotalFiles         int      `json:"total_files"`
	SuccessfulFiles    int      `json:"successful_files"`
	FailedFiles        int      `json:"failed_files"`
	TotalBytes         int64    `json:"total_bytes"`
	DurationSeconds    float64  `json:"duration_seconds"`
	SuccessRatePercent float64  `json:"success_rate_percent"`
	NoFilesFound       bool     `json:"no_files_found,omitempty"`
}

// Response is the invocation result: an HTTP-ish status code plus Body.
type Response struct {
	StatusCode int  `json:"statusCode"`
	Body       Body `json:"body"`
}

// SourceFactory builds a source store from service-account credentials.
// Injected so the runner is testable without a live bucket.
type SourceFactory func(ctx context.Context, credsJSON []byte) (storage.SourceStore, error)

// Runner wires one batch invocation end to end: credentials, discovery,
// dispatch, and the final structured response.
type Runner struct {
	cfg       *config.Config
	clk       *clock.Clock
	provider  secrets.Provider
	sink      metrics.Sink
	dst       storage.Destination
	newSource SourceFactory
}

// NewRunner assembles a Runner from explicit collaborators.
func NewRunner(cfg *config.Config, clk *clock.Clock, provider secrets.Provider, sink metrics.Sink, dst storage.Destination, newSource SourceFactory) *Runner {
	if clk == nil {
		clk = clock.New()
	}
	if sink == nil {
		sink = metrics.Noop{}
	}
	return &Runner{
		cfg:       cfg,
		clk:       clk,
		provider:  provider,
		sink:      sink,
		dst:       dst,
		newSource: newSource,
	}
}

// NewFromConfig builds a production Runner: AWS Secrets Manager provider,
// CloudWatch sink (when enabled), the configured destination, and a GCS
// source factory.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Runner, error) {
	var provider secrets.Provider
	if cfg.Source.CredentialsSecret != "" {
		p, err := secrets.NewManagerProvider(ctx, cfg.Source.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("failed building secrets provider: %w", err)
		}
		provider = p
	}

	var sink metrics.Sink = metrics.Noop{}
	if cfg.Metrics.Enabled {
		s, err := metrics.NewCloudWatchSink(ctx, cfg.Source.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("failed building metrics sink: %w", err)
		}
		sink = s
	}

	dst, err := newDestination(cfg.Destination)
	if err != nil {
		return nil, err
	}

	newSource := func(ctx context.Context, credsJSON []byte) (storage.SourceStore, error) {
		return storage.NewGCSClient(ctx, storage.GCSConfig{
			Bucket:          cfg.Source.Bucket,
			CredentialsJSON: credsJSON,
		})
	}

	return NewRunner(cfg, clock.New(), provider, sink, dst, newSource), nil
}

func newDestination(cfg config.DestinationConfig) (storage.Destination, error) {
	switch strings.ToLower(cfg.Kind) {
	case "s3":
		return storage.NewS3Destination(storage.S3Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
	case "fs":
		return storage.NewFSDestination(cfg.Directory)
	default:
		return nil, fmt.Errorf("unknown destination kind %q (want s3 or fs)", cfg.Kind)
	}
}

// Run executes one batch invocation and always returns a Response; it
// never panics outward.
func (r *Runner) Run(ctx context.Context) (resp Response) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Log.Error().Interface("panic", rec).Msg("invocation panicked")
			resp = Response{
				StatusCode: http.StatusInternalServerError,
				Body:       Body{Message: fmt.Sprintf("unexpected error: %v", rec)},
			}
		}
	}()

	bucket := strings.TrimSpace(r.cfg.Source.Bucket)
	if bucket == "" {
		return Response{
			StatusCode: http.StatusBadRequest,
			Body:       Body{Message: "source bucket name is required"},
		}
	}

	creds, err := r.loadCredentials(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("failed to load source credentials")
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body:       Body{Message: err.Error()},
		}
	}

	src, err := r.newSource(ctx, creds)
	if err != nil {
		logger.Log.Error().Err(err).Msg("failed to build source client")
		return Response{
			StatusCode: http.StatusInternalServerError,
			Body:       Body{Message: err.Error()},
		}
	}

	prefixes := r.clk.Prefixes(r.cfg.Transfer.LookbackHours)
	logger.Log.Info().Str("bucket", bucket).Strs("prefixes", prefixes).Msg("starting batch")

	refs, derr := discover(ctx, src, bucket, prefixes, r.cfg.Transfer.Suffix)
	if derr != nil {
		logger.Log.Error().Err(derr).Msg("discovery failed")
		return Response{
			StatusCode: http.StatusNotFound,
			Body:       Body{Message: derr.Error(), Prefixes: prefixes},
		}
	}

	coordinator := batch.NewCoordinator(
		fetch.New(src, r.retryPolicy()),
		r.dst,
		r.sink,
		batch.Config{
			WorkerCount: r.cfg.Transfer.WorkerCount,
			Validate:    r.cfg.Transfer.Validate,
			Namespace:   r.cfg.Metrics.Namespace,
		},
	)

	summary := coordinator.Run(ctx, refs)

	body := Body{
		Success:            true,
		Prefixes:           prefixes,
		TotalFiles:         summary.TotalFiles,
		SuccessfulFiles:    summary.SuccessfulFiles,
		FailedFiles:        summary.FailedFiles(),
		TotalBytes:         summary.TotalBytes,
		DurationSeconds:    summary.Duration.Seconds(),
		SuccessRatePercent: summary.SuccessRatePercent(),
	}
	if summary.TotalFiles == 0 {
		body.Message = "no files found"
		body.NoFilesFound = true
	} else {
		body.Message = fmt.Sprintf("transferred %d/%d files from bucket %s",
			summary.SuccessfulFiles, summary.TotalFiles, bucket)
	}

	logger.Log.Info().
		Int("total", summary.TotalFiles).
		Int("successful", summary.SuccessfulFiles).
		Int64("bytes", summary.TotalBytes).
		Dur("duration", summary.Duration).
		Msg("batch finished")

	return Response{StatusCode: http.StatusOK, Body: body}
}

// loadCredentials fetches the source service-account secret once per
// invocation. An unset secret name means ambient credentials.
func (r *Runner) loadCredentials(ctx context.Context) ([]byte, error) {
	name := r.cfg.Source.CredentialsSecret
	if name == "" || r.provider == nil {
		return nil, nil
	}
	secret, err := r.provider.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed retrieving credentials secret: %w", err)
	}
	return []byte(secret), nil
}

func (r *Runner) retryPolicy() fetch.Policy {
	p := fetch.DefaultPolicy()
	if r.cfg.Transfer.RetryAttempts > 0 {
		p.MaxAttempts = r.cfg.Transfer.RetryAttempts
	}
	if r.cfg.Transfer.RetryBaseDelay > 0 {
		p.BaseDelay = r.cfg.Transfer.RetryBaseDelay
	}
	if r.cfg.Transfer.RetryMaxDelay > 0 {
		p.MaxDelay = r.cfg.Transfer.RetryMaxDelay
	}
	return p
}

// discover lists candidate objects across all prefixes, de-duplicated by
// key. Any store failure here is fatal for the batch.
func discover(ctx context.Context, src storage.SourceStore, bucket string, prefixes []string, suffix string) ([]storage.ObjectInfo, *storage.DiscoveryError) {
	exists, err := src.BucketExists(ctx)
	if err != nil {
		return nil, &storage.DiscoveryError{Bucket: bucket, Err: err}
	}
	if !exists {
		return nil, &storage.DiscoveryError{
			Bucket: bucket,
			Err:    fmt.Errorf("bucket does not exist or is not accessible"),
		}
	}

	seen := make(map[string]storage.ObjectInfo)
	for _, prefix := range prefixes {
		objects, err := src.ListObjects(ctx, prefix, suffix)
		if err != nil {
			return nil, &storage.DiscoveryError{Bucket: bucket, Err: err}
		}
		for _, obj := range objects {
			seen[obj.Key] = obj
		}
	}

	refs := make([]storage.ObjectInfo, 0, len(seen))
	for _, obj := range seen {
		refs = append(refs, obj)
	}
	// Stable order for logging; the coordinator does not depend on it.
	sort.Slice(refs, func(i, j int) bool { return refs[i].Key < refs[j].Key })
	return refs, nil
}
