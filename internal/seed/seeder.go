// Package seed populates a media directory with placeholder images.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"git.home.luguber.info/inful/mediaindex/internal/config"
	"git.home.luguber.info/inful/mediaindex/internal/fsutil"
	"git.home.luguber.info/inful/mediaindex/internal/logfields"
	"git.home.luguber.info/inful/mediaindex/internal/metrics"
	"git.home.luguber.info/inful/mediaindex/internal/retry"
)

// ErrBodyTooLarge is returned when a response exceeds the configured limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

const defaultMaxBytes = 20 << 20

// Seeder fetches count images and writes them as <i>.jpg.
type Seeder struct {
	fetcher     Fetcher
	pattern     string
	concurrency int
	maxBytes    int64
	policy      retry.Policy
	observer    Observer
	recorder    metrics.Recorder
	logger      *slog.Logger
}

// Option configures a Seeder.
type Option func(*Seeder)

func WithURLPattern(p string) Option { return func(s *Seeder) { s.pattern = p } }

func WithConcurrency(n int) Option {
	return func(s *Seeder) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithMaxBytes(n int64) Option {
	return func(s *Seeder) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func WithRetryPolicy(p retry.Policy) Option { return func(s *Seeder) { s.policy = p } }

func WithObserver(o Observer) Option {
	return func(s *Seeder) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(s *Seeder) { s.recorder = metrics.OrNoop(r) }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Seeder) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a Seeder around fetcher. A nil fetcher gets an HTTPFetcher.
func New(fetcher Fetcher, opts ...Option) *Seeder {
	if fetcher == nil {
		fetcher = NewHTTPFetcher(0)
	}
	s := &Seeder{
		fetcher:     fetcher,
		pattern:     config.DefaultURLPattern,
		concurrency: 1,
		maxBytes:    defaultMaxBytes,
		policy:      retry.DefaultPolicy(),
		observer:    NopObserver{},
		recorder:    metrics.NoopRecorder{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromConfig builds a Seeder from seeding settings.
func FromConfig(sc config.SeedConfig, opts ...Option) *Seeder {
	base := []Option{
		WithURLPattern(sc.URLPattern),
		WithConcurrency(sc.Concurrency),
		WithMaxBytes(sc.MaxBytes),
		WithRetryPolicy(retry.FromConfig(sc.Retry)),
	}
	return New(NewHTTPFetcher(sc.Timeout), append(base, opts...)...)
}

// URLFor expands the pattern for index i.
func (s *Seeder) URLFor(i int) string {
	return strings.ReplaceAll(s.pattern, config.IndexPlaceholder, strconv.Itoa(i))
}

// Seed performs count fetches into dir. Individual failures are recorded in
// the Summary and never stop the run; the returned error is non-nil only when
// ctx ends before every index was attempted.
func (s *Seeder) Seed(ctx context.Context, dir string, count int) (Summary, error) {
	if count <= 0 {
		return Summary{}, nil
	}

	s.observer.SeedStarted(count)
	results := make([]Result, count)

	workers := min(s.concurrency, count)
	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = s.fetchOne(ctx, dir, i)
			}
		}()
	}
	for i := range count {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	summary := Summary{Requested: count, Results: results}
	for _, r := range results {
		if r.OK() {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	s.observer.SeedFinished(summary)

	s.logger.Info("Dataset seeding finished",
		logfields.MediaDir(dir),
		logfields.Count(summary.Succeeded),
		slog.Int("failed", summary.Failed))

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

func (s *Seeder) fetchOne(ctx context.Context, dir string, i int) Result {
	name := strconv.Itoa(i) + ".jpg"
	res := Result{Index: i, URL: s.URLFor(i), Path: filepath.Join(dir, name)}
	if err := ctx.Err(); err != nil {
		res.Err = err
		s.observer.FetchFinished(res)
		return res
	}

	s.observer.FetchStarted(i, res.URL)
	start := time.Now()

	res.Err = s.policy.Do(ctx, func(ctx context.Context) error {
		res.Attempts++
		n, err := s.download(ctx, res.URL, dir, name)
		res.Bytes = n
		if permanent(err) {
			return retry.Permanent(err)
		}
		return err
	}, func(n int, err error) {
		s.recorder.IncFetchRetry()
		s.logger.Debug("Retrying fetch", logfields.Index(i), logfields.URL(res.URL),
			slog.Int("retry", n), logfields.Error(err))
	})
	res.Duration = time.Since(start)
	s.recorder.ObserveFetchDuration(res.Duration, res.OK())

	if res.Err != nil {
		res.Bytes = 0
		s.logger.Warn("Fetch failed", logfields.Index(i), logfields.URL(res.URL), logfields.Error(res.Err))
	} else {
		s.logger.Debug("Fetched image", logfields.Index(i), logfields.Path(res.Path),
			slog.Int64("bytes", res.Bytes),
			logfields.DurationMS(float64(res.Duration.Microseconds())/1000))
	}
	s.observer.FetchFinished(res)
	return res
}

// permanent reports failures a retry cannot fix: oversized bodies and client
// errors other than timeouts and rate limiting.
func permanent(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBodyTooLarge) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 400 && se.Code < 500 &&
			se.Code != http.StatusRequestTimeout && se.Code != http.StatusTooManyRequests
	}
	return false
}

func (s *Seeder) download(ctx context.Context, url, dir, name string) (int64, error) {
	body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	n, err := fsutil.WriteAtomic(dir, name, &capReader{r: body, remaining: s.maxBytes})
	if err != nil {
		if errors.Is(err, ErrBodyTooLarge) {
			return 0, fmt.Errorf("%s: %w (limit %d bytes)", url, ErrBodyTooLarge, s.maxBytes)
		}
		return 0, err
	}
	return n, nil
}

// capReader passes through up to remaining bytes and fails if more follow.
type capReader struct {
	r         io.Reader
	remaining int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.remaining <= 0 {
		var probe [1]byte
		n, err := c.r.Read(probe[:])
		if n > 0 {
			return 0, ErrBodyTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > c.remaining {
		p = p[:c.remaining]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	return n, err
}
