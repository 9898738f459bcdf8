// Package pipeline runs an indexing pass: ensure the media root, seed,
// collect and compose.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/mediaindex/internal/collect"
	"git.home.luguber.info/inful/mediaindex/internal/compose"
	"git.home.luguber.info/inful/mediaindex/internal/config"
	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
	"git.home.luguber.info/inful/mediaindex/internal/logfields"
	"git.home.luguber.info/inful/mediaindex/internal/metrics"
	"git.home.luguber.info/inful/mediaindex/internal/observability"
	"git.home.luguber.info/inful/mediaindex/internal/seed"
)

// Stage names used in logs and metrics.
const (
	StageEnsure  = "ensure"
	StageSeed    = "seed"
	StageCollect = "collect"
	StageCompose = "compose"
)

// Seeder is the dataset seeding collaborator.
type Seeder interface {
	Seed(ctx context.Context, dir string, count int) (seed.Summary, error)
}

// Report describes one run.
type Report struct {
	RunID     string
	MediaDir  string
	Seed      seed.Summary
	SeedErr   error // partial seeding failure tolerated outside strict mode
	Files     []string
	Output    string
	Duration  time.Duration
	StartedAt time.Time
}

// Collected returns the number of files listed on the page.
func (r *Report) Collected() int { return len(r.Files) }

// Runner executes indexing runs.
type Runner struct {
	recorder metrics.Recorder
	logger   *slog.Logger
	observer seed.Observer
	seeder   Seeder
	renderer compose.Renderer
}

// Option configures a Runner.
type Option func(*Runner)

func WithRecorder(r metrics.Recorder) Option { return func(rn *Runner) { rn.recorder = metrics.OrNoop(r) } }

func WithLogger(l *slog.Logger) Option {
	return func(rn *Runner) {
		if l != nil {
			rn.logger = l
		}
	}
}

// WithSeedObserver attaches progress reporting to the default seeder.
func WithSeedObserver(o seed.Observer) Option { return func(rn *Runner) { rn.observer = o } }

// WithSeeder replaces the HTTP seeder built from configuration.
func WithSeeder(s Seeder) Option { return func(rn *Runner) { rn.seeder = s } }

// WithRenderer replaces the file renderer built from configuration.
func WithRenderer(r compose.Renderer) Option { return func(rn *Runner) { rn.renderer = r } }

func NewRunner(opts ...Option) *Runner {
	r := &Runner{recorder: metrics.NoopRecorder{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run performs a full pass for cfg. cfg must be validated.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (*Report, error) {
	report, ctx := r.begin(ctx, cfg)
	err := r.run(ctx, cfg, report, true)
	r.finish(ctx, report, err)
	return report, err
}

// Reindex collects and composes without seeding. The media root must exist.
func (r *Runner) Reindex(ctx context.Context, cfg *config.Config) (*Report, error) {
	report, ctx := r.begin(ctx, cfg)
	err := r.run(ctx, cfg, report, false)
	r.finish(ctx, report, err)
	return report, err
}

func (r *Runner) begin(ctx context.Context, cfg *config.Config) (*Report, context.Context) {
	report := &Report{RunID: uuid.NewString(), StartedAt: time.Now()}
	report.MediaDir = ResolveRoot(cfg.MediaDir)
	ctx = observability.WithRunID(ctx, report.RunID)
	ctx = observability.WithMediaDir(ctx, report.MediaDir)
	return report, ctx
}

func (r *Runner) finish(ctx context.Context, report *Report, err error) {
	report.Duration = time.Since(report.StartedAt)
	r.recorder.ObserveRunDuration(report.Duration)
	switch {
	case err == nil && report.SeedErr != nil:
		r.recorder.IncRunOutcome(metrics.ResultWarning)
	case err == nil:
		r.recorder.IncRunOutcome(metrics.ResultSuccess)
	case errors.Is(err, context.Canceled):
		r.recorder.IncRunOutcome(metrics.ResultCanceled)
	default:
		r.recorder.IncRunOutcome(metrics.ResultFatal)
	}
	if err == nil {
		observability.InfoContext(ctx, r.logger, "Index run complete",
			logfields.Count(report.Collected()),
			logfields.Path(report.Output),
			logfields.DurationMS(msSince(report.StartedAt)))
	}
}

func (r *Runner) run(ctx context.Context, cfg *config.Config, report *Report, full bool) error {
	root := report.MediaDir

	if full {
		if err := r.stage(ctx, StageEnsure, func(context.Context) error {
			return EnsureRoot(root, r.logger)
		}); err != nil {
			return err
		}
		if cfg.InitDataset > 0 {
			if err := r.stage(ctx, StageSeed, func(ctx context.Context) error {
				return r.seed(ctx, cfg, report)
			}); err != nil {
				return err
			}
		}
	}

	if err := r.stage(ctx, StageCollect, func(ctx context.Context) error {
		files, err := r.Collect(ctx, root)
		report.Files = files
		return err
	}); err != nil {
		return err
	}
	r.recorder.SetCollectedFiles(len(report.Files))

	return r.stage(ctx, StageCompose, func(ctx context.Context) error {
		c := compose.FromConfig(cfg, observability.Logger(ctx, r.logger))
		if r.renderer != nil {
			c.Renderer = r.renderer
		}
		out, err := c.Compose(ctx, root, report.Files)
		report.Output = out
		return err
	})
}

func (r *Runner) seed(ctx context.Context, cfg *config.Config, report *Report) error {
	s := r.seeder
	if s == nil {
		s = seed.FromConfig(cfg.Seed,
			seed.WithObserver(r.observer),
			seed.WithRecorder(r.recorder),
			seed.WithLogger(observability.Logger(ctx, r.logger)))
	}
	summary, err := s.Seed(ctx, report.MediaDir, cfg.InitDataset)
	report.Seed = summary
	if err != nil {
		return err
	}
	if serr := summary.Err(); serr != nil {
		if cfg.Seed.Strict {
			return serr
		}
		report.SeedErr = serr
		observability.WarnContext(ctx, r.logger, "Continuing with partial dataset",
			logfields.Count(summary.Succeeded),
			slog.Int("failed", summary.Failed),
			logfields.Error(serr))
	}
	return nil
}

// Collect lists media files under root, leaving out the generated index page.
func (r *Runner) Collect(ctx context.Context, root string) ([]string, error) {
	return collect.Collect(ctx, root, collect.Options{
		Exclude: []string{filepath.Join(root, config.IndexFileName)},
		Logger:  observability.Logger(ctx, r.logger),
	})
}

// stage runs fn with timing, metrics and logging.
func (r *Runner) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx = observability.WithStage(ctx, name)
	start := time.Now()
	err := fn(ctx)
	r.recorder.ObserveStageDuration(name, time.Since(start))

	switch {
	case err == nil:
		r.recorder.IncStageResult(name, metrics.ResultSuccess)
		observability.DebugContext(ctx, r.logger, "Stage finished", logfields.DurationMS(msSince(start)))
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		r.recorder.IncStageResult(name, metrics.ResultCanceled)
		observability.WarnContext(ctx, r.logger, "Stage canceled", logfields.Error(err))
	default:
		r.recorder.IncStageResult(name, metrics.ResultFatal)
		observability.DebugContext(ctx, r.logger, "Stage failed", logfields.Error(err))
	}
	return err
}

// ResolveRoot returns the absolute, cleaned form of dir.
func ResolveRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return filepath.Clean(dir)
	}
	return abs
}

// EnsureRoot creates root with a single mkdir when it is missing. The parent
// must already exist.
func EnsureRoot(root string, logger *slog.Logger) error {
	info, err := os.Stat(root)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return ferrors.FileSystemError("media path exists but is not a directory").
			WithContext("path", root).
			Build()
	case !errors.Is(err, fs.ErrNotExist):
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to stat media directory").
			Fatal().
			WithContext("path", root).
			Build()
	}

	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Media directory does not exist; creating", logfields.MediaDir(root))
	if err := os.Mkdir(root, 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create media directory").
			Fatal().
			WithContext("path", root).
			Build()
	}
	return nil
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}
