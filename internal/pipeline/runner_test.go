package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mediaindex/internal/config"
	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
	"git.home.luguber.info/inful/mediaindex/internal/metrics"
	"git.home.luguber.info/inful/mediaindex/internal/seed"
)

// fakeSeeder writes <i>.jpg for every index not listed in fail.
type fakeSeeder struct {
	fail map[int]bool
}

func (f fakeSeeder) Seed(_ context.Context, dir string, count int) (seed.Summary, error) {
	s := seed.Summary{Requested: count}
	for i := range count {
		r := seed.Result{Index: i, Path: filepath.Join(dir, strconv.Itoa(i)+".jpg"), Attempts: 1}
		if f.fail[i] {
			r.Err = errors.New("unexpected status 503")
			s.Failed++
		} else {
			if err := os.WriteFile(r.Path, []byte("img"), 0o600); err != nil {
				return s, err
			}
			s.Succeeded++
		}
		s.Results = append(s.Results, r)
	}
	return s, nil
}

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg := &config.Config{MediaDir: dir}
	require.NoError(t, config.ApplyDefaults(cfg))
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestRun_CreatesRootSeedsAndComposes(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")
	cfg := testConfig(t, dir)
	cfg.InitDataset = 3

	report, err := NewRunner(WithSeeder(fakeSeeder{})).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.DirExists(t, dir)
	for _, n := range []string{"0.jpg", "1.jpg", "2.jpg"} {
		assert.FileExists(t, filepath.Join(dir, n))
	}
	assert.Equal(t, 3, report.Collected())
	assert.Equal(t, filepath.Join(dir, "index.html"), report.Output)
	assert.NotEmpty(t, report.RunID)
	assert.NoError(t, report.SeedErr)
}

func TestRun_ParentMissingFails(t *testing.T) {
	cfg := testConfig(t, filepath.Join(t.TempDir(), "missing", "media"))

	_, err := NewRunner().Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryFileSystem))
}

func TestRun_RootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "media")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	_, err := NewRunner().Run(context.Background(), testConfig(t, file))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestRun_IndexNotCollectedAndIdempotent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("x"), 0o600))
	cfg := testConfig(t, dir)
	cfg.Prefix = "/media/"
	runner := NewRunner()

	first, err := runner.Run(context.Background(), cfg)
	require.NoError(t, err)
	page1, err := os.ReadFile(first.Output)
	require.NoError(t, err)

	second, err := runner.Run(context.Background(), cfg)
	require.NoError(t, err)
	page2, err := os.ReadFile(second.Output)
	require.NoError(t, err)

	assert.Equal(t, 1, second.Collected())
	assert.Equal(t, page1, page2)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(page2)))
	require.NoError(t, err)
	src, _ := doc.Find("img").Attr("src")
	assert.Equal(t, "/media/a.jpg", src)
}

func TestRun_EmptyDirectory(t *testing.T) {
	report, err := NewRunner().Run(context.Background(), testConfig(t, t.TempDir()))
	require.NoError(t, err)
	assert.Zero(t, report.Collected())
	assert.FileExists(t, report.Output)
}

func TestRun_PartialSeedToleratedByDefault(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.InitDataset = 3

	report, err := NewRunner(WithSeeder(fakeSeeder{fail: map[int]bool{1: true}})).Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Error(t, report.SeedErr)
	assert.True(t, ferrors.HasCategory(report.SeedErr, ferrors.CategoryNetwork))
	assert.Equal(t, 2, report.Collected())
}

func TestRun_StrictSeedFails(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.InitDataset = 2
	cfg.Seed.Strict = true

	report, err := NewRunner(WithSeeder(fakeSeeder{fail: map[int]bool{0: true}})).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryNetwork))
	assert.Empty(t, report.Output)
	assert.NoFileExists(t, filepath.Join(cfg.MediaDir, "index.html"))
}

func TestReindex_SkipsSeeding(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.InitDataset = 5

	report, err := NewRunner(WithSeeder(fakeSeeder{})).Reindex(context.Background(), cfg)
	require.NoError(t, err)
	assert.Zero(t, report.Seed.Requested)
	assert.Zero(t, report.Collected())
}

type stageRecorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	results  map[string]metrics.ResultLabel
	outcome  metrics.ResultLabel
	files    int
	duration time.Duration
}

func (s *stageRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[stage] = result
}
func (s *stageRecorder) IncRunOutcome(result metrics.ResultLabel) { s.outcome = result }
func (s *stageRecorder) SetCollectedFiles(n int)                  { s.files = n }
func (s *stageRecorder) ObserveRunDuration(d time.Duration)       { s.duration = d }

func TestRun_RecordsStages(t *testing.T) {
	rec := &stageRecorder{results: map[string]metrics.ResultLabel{}}
	cfg := testConfig(t, t.TempDir())
	cfg.InitDataset = 1

	_, err := NewRunner(WithRecorder(rec), WithSeeder(fakeSeeder{})).Run(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, map[string]metrics.ResultLabel{
		StageEnsure:  metrics.ResultSuccess,
		StageSeed:    metrics.ResultSuccess,
		StageCollect: metrics.ResultSuccess,
		StageCompose: metrics.ResultSuccess,
	}, rec.results)
	assert.Equal(t, metrics.ResultSuccess, rec.outcome)
	assert.Equal(t, 1, rec.files)
}

func TestRun_TemplateErrorRecordedFatal(t *testing.T) {
	rec := &stageRecorder{results: map[string]metrics.ResultLabel{}}
	cfg := testConfig(t, t.TempDir())
	cfg.TemplateDir = t.TempDir()
	cfg.Template = "template.html"

	_, err := NewRunner(WithRecorder(rec)).Run(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryTemplate))
	assert.Equal(t, metrics.ResultFatal, rec.results[StageCompose])
	assert.Equal(t, metrics.ResultFatal, rec.outcome)
}

func TestRun_Canceled(t *testing.T) {
	rec := &stageRecorder{results: map[string]metrics.ResultLabel{}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(WithRecorder(rec)).Run(ctx, testConfig(t, t.TempDir()))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, metrics.ResultCanceled, rec.outcome)
}
