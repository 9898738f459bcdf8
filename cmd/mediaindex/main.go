package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mediaindex/cmd/mediaindex/commands"
	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
	"git.home.luguber.info/inful/mediaindex/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Must(cli,
		kong.Name("mediaindex"),
		kong.Description("Index a media directory into a static gallery page."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	kctx, err := parser.Parse(commands.NormalizeArgs(os.Args[1:]))
	if err != nil {
		parser.Errorf("%s", err)
		os.Exit(2)
	}

	global := &commands.Global{Logger: slog.Default(), Out: os.Stdout}
	ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(kctx.Run(global, cli))
}
