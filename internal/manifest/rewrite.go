package manifest

import (
	"bytes"
	"encoding/json"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ServiceWorkerPath is where the injected script registers the worker.
const ServiceWorkerPath = "/sw.js"

const registerServiceWorker = `
if ('serviceWorker' in navigator) {
    navigator.serviceWorker.register('` + ServiceWorkerPath + `').then(function() {
        return navigator.serviceWorker.ready;
    }).catch(function(error) {
        console.log('Error : ', error);
    });
}
`

// Result is a rewritten page and the assets it references.
type Result struct {
	HTML   string
	ETags  map[string]string // local reference, as written in the page -> ETag
	Remote []string          // remote references in document order, deduplicated
}

// ETagJSON encodes the local ETag map.
func (r Result) ETagJSON() string {
	data, err := json.Marshal(r.ETags)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// IsLocal reports whether an asset reference points at the serving host.
func IsLocal(ref string) bool {
	s := strings.ToLower(ref)
	return strings.Contains(s, "localhost") || !strings.Contains(s, "http")
}

// Rewrite parses page, records ETags of local img/link/script assets found in
// fsys and injects a service worker registration as the first child of body.
// dir is the fsys directory the page lives in; relative references resolve
// against it and absolute ones against the fsys root. References that cannot
// be resolved to a file are left out of the map.
func Rewrite(fsys fs.FS, dir string, page io.Reader) (Result, error) {
	root, err := html.Parse(page)
	if err != nil {
		return Result{}, err
	}
	doc := goquery.NewDocumentFromNode(root)

	res := Result{ETags: map[string]string{}}
	seenRemote := map[string]bool{}

	doc.Find("img, link, script").Each(func(_ int, s *goquery.Selection) {
		ref, ok := s.Attr("src")
		if !ok {
			ref, ok = s.Attr("href")
		}
		if !ok || ref == "" {
			return
		}
		if !IsLocal(ref) {
			if !seenRemote[ref] {
				seenRemote[ref] = true
				res.Remote = append(res.Remote, ref)
			}
			return
		}
		name, ok := resolve(dir, ref)
		if !ok {
			return
		}
		info, err := fs.Stat(fsys, name)
		if err != nil || info.IsDir() {
			return
		}
		if etag := CalculateETag(info); etag != "" {
			res.ETags[ref] = etag
		}
	})

	body := doc.Find("body").Get(0)
	if body == nil {
		// html.Parse always synthesizes a body; this guards hand-built trees.
		body = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
		root.AppendChild(body)
	}
	script := &html.Node{Type: html.ElementNode, Data: "script", DataAtom: atom.Script}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: registerServiceWorker})
	if body.FirstChild != nil {
		body.InsertBefore(script, body.FirstChild)
	} else {
		body.AppendChild(script)
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, root); err != nil {
		return Result{}, err
	}
	res.HTML = buf.String()
	return res, nil
}

// resolve maps a local reference to an fs.FS name. The query string and
// fragment are dropped; localhost URLs contribute only their path.
func resolve(dir, ref string) (string, bool) {
	p := ref
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if strings.Contains(p, "://") {
		u, err := url.Parse(p)
		if err != nil {
			return "", false
		}
		p = u.Path
	}
	if p == "" {
		return "", false
	}
	if unescaped, err := url.PathUnescape(p); err == nil {
		p = unescaped
	}

	var name string
	if strings.HasPrefix(p, "/") {
		name = path.Clean(p)
	} else {
		name = path.Join("/", dir, p)
	}
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		name = "."
	}
	if !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}
