package manifest

import (
	"io/fs"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statOf(t *testing.T, mtime time.Time, size int) fs.FileInfo {
	t.Helper()
	fsys := fstest.MapFS{"f": {Data: make([]byte, size), ModTime: mtime}}
	info, err := fs.Stat(fsys, "f")
	require.NoError(t, err)
	return info
}

func TestCalculateETag(t *testing.T) {
	tests := []struct {
		name  string
		mtime time.Time
		size  int
		want  string
	}{
		{"base36 mtime and size", time.Unix(1700000000, 0), 2048, `"s44we81kw"`},
		{"small file", time.Unix(1700000000, 0), 5, `"s44we85"`},
		{"empty file", time.Unix(1700000000, 0), 0, `"s44we80"`},
		{"epoch mtime", time.Unix(0, 0), 10, ""},
		{"mtime one", time.Unix(1, 0), 10, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateETag(statOf(t, tt.mtime, tt.size)))
		})
	}
}
