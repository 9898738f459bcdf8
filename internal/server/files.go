package server

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
	"git.home.luguber.info/inful/mediaindex/internal/logfields"
	"git.home.luguber.info/inful/mediaindex/internal/manifest"
	"git.home.luguber.info/inful/mediaindex/internal/metrics"
)

type fileHandler struct {
	fsys       fs.FS
	store      *manifest.Store
	recorder   metrics.Recorder
	logger     *slog.Logger
	errAdapter *ferrors.HTTPErrorAdapter
}

// cleanName maps a request path onto an fs.FS name.
func cleanName(urlPath string) string {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		return "."
	}
	return name
}

func (h *fileHandler) notFound(w http.ResponseWriter, r *http.Request) {
	h.errAdapter.WriteErrorResponse(w, r, ferrors.NewError(ferrors.CategoryNotFound, "file not found").
		WithSeverity(ferrors.SeverityInfo).
		WithContext("path", r.URL.Path).
		Build())
}

func (h *fileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := cleanName(r.URL.Path)

	info, err := fs.Stat(h.fsys, name)
	if err != nil {
		h.notFound(w, r)
		return
	}
	if info.IsDir() {
		name = path.Join(name, "index.html")
		if info, err = fs.Stat(h.fsys, name); err != nil || info.IsDir() {
			h.notFound(w, r)
			return
		}
	}

	f, err := h.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			h.notFound(w, r)
			return
		}
		h.errAdapter.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to open file").
			WithContext("path", r.URL.Path).
			Build())
		return
	}
	defer func() { _ = f.Close() }()

	if etag := manifest.CalculateETag(info); etag != "" {
		w.Header().Set("Etag", etag)
	}

	if strings.HasSuffix(info.Name(), ".html") {
		w.Header().Add("Vary", ExtensionHeader)
		if r.Header.Get(ExtensionHeader) == "true" {
			h.serveWithManifest(w, r, name, info, f)
			return
		}
		h.recorder.IncPageServed(false)
	}

	if rs, ok := f.(io.ReadSeeker); ok {
		http.ServeContent(w, r, info.Name(), info.ModTime(), rs)
		return
	}
	data, err := io.ReadAll(f)
	if err != nil {
		h.errAdapter.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read file").
			WithContext("path", r.URL.Path).
			Build())
		return
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), bytes.NewReader(data))
}

// serveWithManifest rewrites an HTML page and attaches its asset manifest.
// If the rewrite fails the original bytes are served unchanged.
func (h *fileHandler) serveWithManifest(w http.ResponseWriter, r *http.Request, name string, info fs.FileInfo, f fs.File) {
	data, err := io.ReadAll(f)
	if err != nil {
		h.errAdapter.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read page").
			WithContext("path", r.URL.Path).
			Build())
		return
	}

	res, err := manifest.Rewrite(h.fsys, path.Dir(name), bytes.NewReader(data))
	if err != nil {
		h.logger.Warn("Failed to build asset manifest; serving page unchanged",
			logfields.Path(name), logfields.Error(err))
		h.recorder.IncPageServed(false)
		http.ServeContent(w, r, info.Name(), info.ModTime(), bytes.NewReader(data))
		return
	}

	for _, ref := range res.Remote {
		h.store.Track(ref)
	}
	local := res.ETagJSON()
	if merged, err := h.store.MergeJSON(local); err != nil {
		h.logger.Warn("Failed to merge remote ETags", logfields.Path(name), logfields.Error(err))
		w.Header().Set(ManifestHeader, local)
	} else {
		w.Header().Set(ManifestHeader, string(merged))
	}
	h.recorder.IncPageServed(true)
	http.ServeContent(w, r, info.Name(), info.ModTime(), strings.NewReader(res.HTML))
}
