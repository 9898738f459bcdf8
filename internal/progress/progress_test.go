package progress

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mediaindex/internal/seed"
)

func TestBar_RendersAndFinishes(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf)

	b.SeedStarted(2)
	b.FetchStarted(0, "mem://0")
	b.FetchFinished(seed.Result{Index: 0, Duration: time.Millisecond})
	b.FetchFinished(seed.Result{Index: 1, Duration: time.Millisecond})
	b.SeedFinished(seed.Summary{Requested: 2, Succeeded: 2})

	assert.Contains(t, buf.String(), "Seeding")
}

func TestBar_AbortsIncompleteRun(t *testing.T) {
	var buf bytes.Buffer
	b := NewBar(&buf)

	b.SeedStarted(3)
	b.FetchFinished(seed.Result{Index: 0})

	done := make(chan struct{})
	go func() {
		b.SeedFinished(seed.Summary{Requested: 3, Succeeded: 1})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("SeedFinished did not return for an incomplete bar")
	}
}

func TestBar_EventsBeforeStartIgnored(t *testing.T) {
	b := NewBar(&bytes.Buffer{})
	assert.NotPanics(t, func() {
		b.FetchFinished(seed.Result{})
		b.SeedFinished(seed.Summary{})
	})
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.log"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.False(t, IsTerminal(f))
	assert.False(t, IsTerminal(nil))
}
