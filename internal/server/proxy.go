package server

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"

	ferrors "git.home.luguber.info/inful/mediaindex/internal/foundation/errors"
	"git.home.luguber.info/inful/mediaindex/internal/logfields"
	"git.home.luguber.info/inful/mediaindex/internal/manifest"
)

// ProxyPath relays third-party assets for the service worker. Cross-origin
// responses are opaque to the worker, so their ETags are learned here.
const ProxyPath = "/proxy-resource"

// forwardedRequestHeaders are copied from the client request upstream.
var forwardedRequestHeaders = []string{"User-Agent", "Accept", "Accept-Language"}

// droppedResponseHeaders never reach the client: hop-by-hop headers and
// headers owned by this server.
var droppedResponseHeaders = map[string]bool{
	"Connection":                true,
	"Keep-Alive":                true,
	"Proxy-Authenticate":        true,
	"Proxy-Authorization":       true,
	"Te":                        true,
	"Trailer":                   true,
	"Transfer-Encoding":         true,
	"Upgrade":                   true,
	"Set-Cookie":                true,
	"Strict-Transport-Security": true,
	"Server":                    true,
}

type proxyHandler struct {
	client     *http.Client
	store      *manifest.Store
	logger     *slog.Logger
	errAdapter *ferrors.HTTPErrorAdapter
}

// proxyTarget validates the url query parameter. It returns the upstream URL
// and the raw value, which is the Store key the page references.
func proxyTarget(r *http.Request) (*url.URL, string, error) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		return nil, "", ferrors.ValidationError("missing url query parameter").Build()
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, "", ferrors.ValidationError("proxy target must be an absolute http or https URL").
			WithContext("url", raw).
			Build()
	}
	u.User = nil
	u.Fragment = ""
	return u, raw, nil
}

func (h *proxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	target, key, err := proxyTarget(r)
	if err != nil {
		h.errAdapter.WriteErrorResponse(w, r, err)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		h.errAdapter.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to build proxy request").Build())
		return
	}
	// Cookies and credentials of the page are never sent to third parties.
	for _, name := range forwardedRequestHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.errAdapter.WriteErrorResponse(w, r, ferrors.WrapError(err, ferrors.CategoryNetwork, "proxy request failed").
			WithContext("url", key).
			Build())
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if etag := resp.Header.Get("Etag"); etag != "" && resp.StatusCode == http.StatusOK {
		h.store.Set(key, etag)
	}

	hdr := w.Header()
	for name, values := range resp.Header {
		name = http.CanonicalHeaderKey(name)
		if droppedResponseHeaders[name] {
			continue
		}
		hdr[name] = values
	}
	w.WriteHeader(resp.StatusCode)
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		h.logger.Warn("Proxy body copy failed", logfields.URL(key), logfields.Error(err))
		return
	}
	h.logger.Debug("Proxied resource", logfields.URL(key), logfields.Status(resp.StatusCode), slog.Int64("bytes", n))
}
