package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
)

// Result is the outcome of one indexed fetch.
type Result struct {
	Index    int
	URL      string
	Path     string
	Bytes    int64
	Attempts int
	Duration time.Duration
	Err      error
}

// OK reports whether the image was written.
func (r Result) OK() bool { return r.Err == nil }

// Summary aggregates a seeding run. Results are ordered by index.
type Summary struct {
	Requested int
	Succeeded int
	Failed    int
	Results   []Result
}

// FailedIndexes lists the indexes whose fetch did not produce a file.
func (s Summary) FailedIndexes() []int {
	var out []int
	for _, r := range s.Results {
		if !r.OK() {
			out = append(out, r.Index)
		}
	}
	return out
}

// Err is nil when every fetch succeeded; otherwise a network error naming
// the failed indexes.
func (s Summary) Err() error {
	failed := s.FailedIndexes()
	if len(failed) == 0 {
		return nil
	}
	idx := make([]string, len(failed))
	for i, n := range failed {
		idx[i] = strconv.Itoa(n)
	}
	b := ferrors.NetworkError(fmt.Sprintf("failed to fetch %d of %d images (indexes %s)",
		len(failed), s.Requested, strings.Join(idx, ", "))).
		WithContext("failed_indexes", failed)
	for _, r := range s.Results {
		if !r.OK() {
			b = b.WithContext("first_error", r.Err.Error())
			break
		}
	}
	return b.Build()
}
