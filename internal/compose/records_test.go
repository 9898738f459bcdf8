package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRecords(t *testing.T) {
	tests := []struct {
		name   string
		paths  []string
		root   string
		prefix string
		want   []Record
	}{
		{
			name:  "no prefix keeps raw paths",
			paths: []string{"/a/b/c/d.jpg", "/a/b/e.jpg"},
			root:  "/a/b",
			want:  []Record{{Key: "/a/b/c/d.jpg"}, {Key: "/a/b/e.jpg"}},
		},
		{
			name:   "prefix replaces root segment",
			paths:  []string{"/a/b/c/d.jpg"},
			root:   "/a/b",
			prefix: "X",
			want:   []Record{{Key: "Xc/d.jpg"}},
		},
		{
			name:   "only the leading segment is replaced",
			paths:  []string{"/a/b/a/b/x.jpg"},
			root:   "/a/b",
			prefix: "/cdn/",
			want:   []Record{{Key: "/cdn/a/b/x.jpg"}},
		},
		{
			name:   "trailing slash on root",
			paths:  []string{"/a/b/x.jpg"},
			root:   "/a/b/",
			prefix: "p/",
			want:   []Record{{Key: "p/x.jpg"}},
		},
		{
			name:   "path outside root untouched",
			paths:  []string{"/elsewhere/x.jpg"},
			root:   "/a/b",
			prefix: "p/",
			want:   []Record{{Key: "/elsewhere/x.jpg"}},
		},
		{
			name:  "empty input",
			paths: nil,
			root:  "/a/b",
			want:  []Record{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildRecords(tt.paths, tt.root, tt.prefix))
		})
	}
}
