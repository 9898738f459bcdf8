package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mediaindex/internal/manifest"
)

func TestProxy_RelaysAndStoresETag(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Cookie"))
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "image/*", r.Header.Get("Accept"))
		w.Header().Set("Etag", `"cdn-7"`)
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Set-Cookie", "tracker=1")
		w.Header().Set("Server", "cdn")
		_, _ = w.Write([]byte("remote-bytes"))
	}))
	t.Cleanup(upstream.Close)

	store := manifest.NewStore()
	h := New(mediaRoot(t), Options{Store: store, ProxyClient: upstream.Client()}).Handler()
	asset := upstream.URL + "/a.jpg"

	rec := get(t, h, ProxyPath+"?url="+url.QueryEscape(asset), map[string]string{
		"Accept":        "image/*",
		"Cookie":        "session=secret",
		"Authorization": "Bearer secret",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "remote-bytes", rec.Body.String())
	assert.Equal(t, `"cdn-7"`, rec.Header().Get("Etag"))
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
	assert.Empty(t, rec.Header().Get("Server"))

	etag, ok := store.Get(asset)
	require.True(t, ok)
	assert.Equal(t, `"cdn-7"`, etag)
}

func TestProxy_ETagAppearsInPageManifest(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Etag", `"cdn-1"`)
	}))
	t.Cleanup(upstream.Close)

	store := manifest.NewStore()
	h := New(mediaRoot(t), Options{Store: store, ProxyClient: upstream.Client()}).Handler()
	asset := upstream.URL + "/lib.js"
	get(t, h, ProxyPath+"?url="+url.QueryEscape(asset), nil)

	rec := get(t, h, "/", map[string]string{ExtensionHeader: "true"})
	require.Equal(t, http.StatusOK, rec.Code)
	var etags map[string]string
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get(ManifestHeader)), &etags))
	assert.Equal(t, `"cdn-1"`, etags[asset])
}

func TestProxy_RejectsBadTargets(t *testing.T) {
	h := New(mediaRoot(t), Options{}).Handler()

	for _, target := range []string{
		ProxyPath,
		ProxyPath + "?url=" + url.QueryEscape("file:///etc/passwd"),
		ProxyPath + "?url=" + url.QueryEscape("/relative.js"),
		ProxyPath + "?url=" + url.QueryEscape("ftp://example.com/x"),
	} {
		rec := get(t, h, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestProxy_UpstreamErrorNotStored(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Etag", `"gone"`)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(upstream.Close)

	store := manifest.NewStore()
	h := New(mediaRoot(t), Options{Store: store, ProxyClient: upstream.Client()}).Handler()
	asset := upstream.URL + "/missing.js"

	rec := get(t, h, ProxyPath+"?url="+url.QueryEscape(asset), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	_, ok := store.Get(asset)
	assert.False(t, ok)
}

func TestProxy_UnreachableUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	addr := upstream.URL
	upstream.Close()

	h := New(mediaRoot(t), Options{}).Handler()
	rec := get(t, h, ProxyPath+"?url="+url.QueryEscape(addr+"/x.js"), nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
