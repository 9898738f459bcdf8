package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mediaindex/internal/config"
)

// Global carries state shared by all subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Optional YAML configuration file" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" default:"withargs" help:"Seed (optionally), collect and write index.html (default)"`
	List  ListCmd  `cmd:"" help:"Print the files that would be indexed"`
	Serve ServeCmd `cmd:"" help:"Build the index and serve the media directory"`
}

// AfterApply runs after flag parsing; setup logging once from the environment.
// The loaded config may refine it later through configureLogging.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(newLogger(os.Stderr, config.LoggingConfig{
		Level:  config.NormalizeLogLevel(os.Getenv(config.EnvLogLevel)),
		Format: config.NormalizeLogFormat(os.Getenv(config.EnvLogFormat)),
	}, c.Verbose))
	return nil
}

func newLogger(w io.Writer, lc config.LoggingConfig, verbose bool) *slog.Logger {
	level := lc.Level.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// MediaFlags selects the media root.
type MediaFlags struct {
	MediaDir string `short:"d" name:"media-dir" help:"Media root directory (or MEDIAINDEX_MEDIA_DIR)."`
}

func (m MediaFlags) apply(cfg *config.Config) {
	if m.MediaDir != "" {
		cfg.MediaDir = m.MediaDir
	}
}

// PageFlags control seeding and page composition.
type PageFlags struct {
	InitDataset *int    `name:"init-dataset" help:"Download N placeholder images before indexing."`
	Prefix      *string `name:"prefix" help:"Replace the media root in listed paths with this prefix. An empty value keeps raw paths."`
	Template    string  `name:"template" help:"Template file name, resolved against --template-dir. Empty uses the built-in gallery."`
	TemplateDir string  `name:"template-dir" help:"Directory templates are loaded from."`
	Title       string  `name:"title" help:"Page title."`
	StrictSeed  bool    `name:"strict-seed" help:"Fail the run when any placeholder download fails."`
}

func (p PageFlags) apply(cfg *config.Config) {
	if p.InitDataset != nil {
		cfg.InitDataset = *p.InitDataset
	}
	if p.Prefix != nil {
		cfg.Prefix = *p.Prefix
	}
	if p.Template != "" {
		cfg.Template = p.Template
	}
	if p.TemplateDir != "" {
		cfg.TemplateDir = p.TemplateDir
	}
	if p.Title != "" {
		cfg.Title = p.Title
	}
	if p.StrictSeed {
		cfg.Seed.Strict = true
	}
}

// loadConfig loads the optional config file, applies CLI overrides, validates
// and reconfigures logging from the result.
func (c *CLI) loadConfig(g *Global, overrides ...func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	for _, apply := range overrides {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g.configureLogging(cfg.Logging, c.Verbose)
	return cfg, nil
}

func (g *Global) configureLogging(lc config.LoggingConfig, verbose bool) {
	if g.Logger == nil || g.Logger == slog.Default() {
		g.Logger = newLogger(os.Stderr, lc, verbose)
		slog.SetDefault(g.Logger)
	}
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
