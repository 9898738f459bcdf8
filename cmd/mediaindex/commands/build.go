package commands

import (
	"context"
	"fmt"

	"git.home.luguber.info/inful/mediaindex/internal/config"
	"git.home.luguber.info/inful/mediaindex/internal/pipeline"
	"git.home.luguber.info/inful/mediaindex/internal/progress"
	"git.home.luguber.info/inful/mediaindex/internal/seed"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	MediaFlags `embed:""`
	PageFlags  `embed:""`

	observer seed.Observer `kong:"-"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g, b.MediaFlags.apply, b.PageFlags.apply)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()
	_, err = b.run(ctx, g, cfg)
	return err
}

func (b *BuildCmd) run(ctx context.Context, g *Global, cfg *config.Config, opts ...pipeline.Option) (*pipeline.Report, error) {
	observer := b.observer
	if observer == nil {
		observer = progress.ForStderr()
	}
	opts = append([]pipeline.Option{
		pipeline.WithLogger(g.logger()),
		pipeline.WithSeedObserver(observer),
	}, opts...)

	report, err := pipeline.NewRunner(opts...).Run(ctx, cfg)
	if err != nil {
		return report, err
	}
	if report.Seed.Requested > 0 {
		_, _ = fmt.Fprintf(g.out(), "Seeded %d of %d images\n", report.Seed.Succeeded, report.Seed.Requested)
	}
	_, _ = fmt.Fprintf(g.out(), "Indexed %d files into %s\n", report.Collected(), report.Output)
	return report, nil
}
