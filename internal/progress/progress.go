// Package progress renders seeding progress on a terminal.
package progress

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"git.home.luguber.info/inful/mediaindex/internal/seed"
)

// IsTerminal reports whether f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ForStderr returns a progress bar observer when stderr is a terminal and a
// no-op observer otherwise.
func ForStderr() seed.Observer {
	if !IsTerminal(os.Stderr) {
		return seed.NopObserver{}
	}
	return NewBar(os.Stderr)
}

// Bar is a seed.Observer that drives a single mpb progress bar.
type Bar struct {
	out io.Writer

	mu       sync.Mutex
	progress *mpb.Progress
	bar      *mpb.Bar
}

// NewBar renders to out once seeding starts.
func NewBar(out io.Writer) *Bar {
	return &Bar{out: out}
}

func barStyle() mpb.BarStyleComposer {
	return mpb.BarStyle().Lbound("").Filler("█").Padding("░").Tip("").Refiller("").Rbound("")
}

func (b *Bar) SeedStarted(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	opts := []mpb.ContainerOption{mpb.WithOutput(b.out), mpb.WithWidth(60)}
	if f, ok := b.out.(*os.File); !ok || !IsTerminal(f) {
		// mpb only refreshes terminals on its own.
		opts = append(opts, mpb.WithAutoRefresh())
	}
	b.progress = mpb.New(opts...)
	b.bar = b.progress.New(int64(total), barStyle(),
		mpb.PrependDecorators(
			decor.Name("Seeding: "),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "Done!"),
		),
	)
}

func (b *Bar) FetchStarted(int, string) {}

func (b *Bar) FetchFinished(r seed.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.bar == nil {
		return
	}
	b.bar.EwmaIncrement(r.Duration)
}

func (b *Bar) SeedFinished(seed.Summary) {
	b.mu.Lock()
	p, bar := b.progress, b.bar
	b.progress, b.bar = nil, nil
	b.mu.Unlock()
	if p == nil {
		return
	}
	if !bar.Completed() {
		bar.Abort(false)
	}
	p.Wait()
}
