package commands

import (
	"fmt"

	"git.home.luguber.info/inful/mediaindex/internal/pipeline"
)

// ListCmd prints the collected media paths, one per line, without writing
// anything.
type ListCmd struct {
	MediaFlags `embed:""`
}

func (l *ListCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g, l.MediaFlags.apply)
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	runner := pipeline.NewRunner(pipeline.WithLogger(g.logger()))
	files, err := runner.Collect(ctx, pipeline.ResolveRoot(cfg.MediaDir))
	if err != nil {
		return err
	}
	for _, f := range files {
		if _, err := fmt.Fprintln(g.out(), f); err != nil {
			return err
		}
	}
	return nil
}
