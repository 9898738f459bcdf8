// Package manifest builds asset ETag manifests for served HTML pages and
// tracks ETags of remote assets those pages reference.
package manifest

import (
	"io/fs"
	"strconv"
)

// CalculateETag returns a strong ETag derived from modification time and
// size. It does not hash content. Files with an mtime of 0 or 1 (common for
// reproducible builds) get no ETag.
func CalculateETag(info fs.FileInfo) string {
	mtime := info.ModTime().Unix()
	if mtime == 0 || mtime == 1 {
		return ""
	}
	return `"` + strconv.FormatInt(mtime, 36) + strconv.FormatInt(info.Size(), 36) + `"`
}
