package manifest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"git.home.luguber.info/inful/mediaindex/internal/logfields"
)

const (
	headTimeout     = 10 * time.Second
	refreshParallel = 8
)

// Store tracks ETags of remote assets. It is safe for concurrent use.
// A key with an empty ETag is tracked for refresh but never reported.
type Store struct {
	mu     sync.RWMutex
	etags  map[string]string
	client *http.Client
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithHTTPClient overrides the client used for HEAD refreshes.
func WithHTTPClient(c *http.Client) StoreOption {
	return func(s *Store) {
		if c != nil {
			s.client = c
		}
	}
}

// WithStoreLogger sets the logger for refresh diagnostics.
func WithStoreLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		etags:  map[string]string{},
		client: &http.Client{Timeout: headTimeout},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set records etag for key. Empty ETags are ignored.
func (s *Store) Set(key, etag string) {
	if etag == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.etags[key] = etag
}

// Track registers key for refresh without assigning an ETag.
func (s *Store) Track(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.etags[key]; !ok {
		s.etags[key] = ""
	}
}

// Get returns the known ETag for key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.etags[key]
	return v, ok && v != ""
}

// Keys lists every tracked key in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.etags))
}

func (s *Store) known() map[string]string {
	out := make(map[string]string, len(s.etags))
	for k, v := range s.etags {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

func (s *Store) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(s.known())
}

func (s *Store) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if m == nil {
		m = map[string]string{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.etags = m
	return nil
}

// MergeJSON overlays the store's known ETags onto the JSON object local.
// Store entries win on conflicting keys.
func (s *Store) MergeJSON(local string) ([]byte, error) {
	merged := map[string]string{}
	if err := json.Unmarshal([]byte(local), &merged); err != nil {
		return nil, err
	}
	if merged == nil {
		merged = map[string]string{}
	}
	s.mu.RLock()
	maps.Copy(merged, s.known())
	s.mu.RUnlock()
	return json.Marshal(merged)
}

// Refresh issues a HEAD request for every tracked key and stores the ETag of
// each 200 response that carries one. Failures leave the entry unchanged.
// It returns the number of entries updated.
func (s *Store) Refresh(ctx context.Context) int {
	keys := s.Keys()
	if len(keys) == 0 {
		return 0
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		updated int
		sem     = make(chan struct{}, refreshParallel)
	)
	for _, key := range keys {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			if etag := s.head(ctx, key); etag != "" {
				s.Set(key, etag)
				mu.Lock()
				updated++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.logger.Debug("Refreshed remote ETags", logfields.Count(updated), slog.Int("tracked", len(keys)))
	return updated
}

func (s *Store) head(ctx context.Context, key string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, key, http.NoBody)
	if err != nil {
		return ""
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("ETag refresh failed", logfields.URL(key), logfields.Error(err))
		return ""
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return ""
	}
	return resp.Header.Get("Etag")
}
