// Package collect lists the regular files under a media directory.
package collect

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
	"git.home.luguber.info/inful/mediaindex/internal/logfields"
)

// Options tunes a collection run.
type Options struct {
	// Exclude lists absolute paths that are never returned or descended into.
	Exclude []string
	Logger  *slog.Logger
}

// Collect returns the absolute path of every regular file under root.
//
// Traversal is depth-first pre-order with directory entries in lexical order.
// Symlinks are followed; each directory is visited once by canonical path, so
// link cycles terminate. Entries that are neither files nor directories are
// skipped. The first OS error aborts the walk.
func Collect(ctx context.Context, root string, opts Options) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fsError(err, "failed to resolve media directory", root)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fsError(err, "failed to stat media directory", absRoot)
	}
	if !info.IsDir() {
		return nil, ferrors.FileSystemError("media path is not a directory").
			WithContext("path", absRoot).
			Build()
	}

	excluded := make(map[string]struct{}, len(opts.Exclude))
	for _, p := range opts.Exclude {
		excluded[filepath.Clean(p)] = struct{}{}
	}

	visited := make(map[string]struct{})
	files := []string{}
	pending := []string{absRoot}

	for len(pending) > 0 {
		current := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		// os.Stat follows symlinks, so links resolve to what they point at.
		info, err := os.Stat(current)
		if err != nil {
			return nil, fsError(err, "failed to stat entry", current)
		}

		switch {
		case info.Mode().IsRegular():
			files = append(files, current)
			continue
		case !info.IsDir():
			logger.Debug("Skipping non-regular entry",
				logfields.Path(current),
				slog.String("mode", info.Mode().Type().String()))
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		canonical, err := filepath.EvalSymlinks(current)
		if err != nil {
			return nil, fsError(err, "failed to resolve directory", current)
		}
		if _, seen := visited[canonical]; seen {
			logger.Debug("Skipping already visited directory",
				logfields.Path(current),
				slog.String("target", canonical))
			continue
		}
		visited[canonical] = struct{}{}

		entries, err := os.ReadDir(current)
		if err != nil {
			return nil, fsError(err, "failed to read directory", current)
		}

		children := make([]string, 0, len(entries))
		for _, e := range entries {
			child := filepath.Join(current, e.Name())
			if _, skip := excluded[child]; skip {
				continue
			}
			children = append(children, child)
		}
		// Reverse so the lexically first entry is popped first.
		slices.Reverse(children)
		pending = append(pending, children...)
	}

	logger.Debug("Collected media files", logfields.MediaDir(absRoot), logfields.Count(len(files)))
	return files, nil
}

func fsError(err error, msg, path string) error {
	return ferrors.WrapError(err, ferrors.CategoryFileSystem, msg).
		Fatal().
		WithContext("path", path).
		Build()
}
