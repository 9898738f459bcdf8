// Package compose builds the media index page from collected file paths.
package compose

import (
	"context"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/mediaindex/internal/config"
	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
	"git.home.luguber.info/inful/mediaindex/internal/fsutil"
	"git.home.luguber.info/inful/mediaindex/internal/logfields"
)

// Composer renders and writes <root>/index.html.
type Composer struct {
	Renderer Renderer
	Template string // empty selects the built-in gallery
	Prefix   string
	Title    string
	Logger   *slog.Logger
}

// FromConfig builds a Composer using a FileRenderer rooted at cfg.TemplateDir.
func FromConfig(cfg *config.Config, logger *slog.Logger) *Composer {
	return &Composer{
		Renderer: NewFileRenderer(cfg.TemplateDir),
		Template: cfg.Template,
		Prefix:   cfg.Prefix,
		Title:    cfg.Title,
		Logger:   logger,
	}
}

// Data builds the mapping handed to the renderer. Each call returns a new map.
func (c *Composer) Data(root string, paths []string) map[string]any {
	records := BuildRecords(paths, root, c.Prefix)
	return map[string]any{
		"pictures": records,
		"count":    len(records),
		"title":    c.Title,
	}
}

// Compose renders the page for paths and atomically replaces <root>/index.html.
// It returns the written path.
func (c *Composer) Compose(ctx context.Context, root string, paths []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	renderer := c.Renderer
	if renderer == nil {
		renderer = NewFileRenderer("")
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	page, err := renderer.Render(c.Template, c.Data(root, paths))
	if err != nil {
		if _, ok := ferrors.AsClassified(err); ok {
			return "", err
		}
		return "", ferrors.WrapError(err, ferrors.CategoryTemplate, "failed to render index page").
			Fatal().
			WithContext("template", c.Template).
			Build()
	}

	out := filepath.Join(root, config.IndexFileName)
	if err := fsutil.WriteFileAtomic(root, config.IndexFileName, []byte(page)); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write index page").
			Fatal().
			WithContext("path", out).
			Build()
	}

	logger.Info("Wrote index page", logfields.Path(out), logfields.Count(len(paths)))
	return out, nil
}
