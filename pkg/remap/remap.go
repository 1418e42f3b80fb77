// Package remap rewrites absolute source-machine track paths into paths
// relative to the destination volume root.
package remap

import (
	gopath "path"
	"path/filepath"
	"strings"

	"github.com/cratedrop/seratosync/pkg/errors"
)

// DefaultDestRoot is the top-level folder on the destination volume that the
// bulk copy step places the music under.
const DefaultDestRoot = "Music"

// Remapper maps absolute source paths under the configured music root to
// destination-relative paths. It's a pure value: no I/O, safe to share.
type Remapper struct {
	musicRoot       string
	destRoot        string
	caseInsensitive bool
}

// New returns a Remapper that strips sourceMusicRoot from paths and replaces
// it with destRoot. With caseInsensitive set, the prefix comparison ignores
// case, which matches the default filesystems the library format ships on.
func New(sourceMusicRoot, destRoot string, caseInsensitive bool) Remapper {
	root := normalize(sourceMusicRoot)
	if destRoot == "" {
		destRoot = DefaultDestRoot
	}
	return Remapper{
		musicRoot:       root,
		destRoot:        destRoot,
		caseInsensitive: caseInsensitive,
	}
}

// Remap converts path into its destination-relative form. The stored format
// keeps paths without a leading separator, so the result never starts with
// one. Paths outside the music root return an UnresolvedPath error and the
// caller decides the policy.
func (r Remapper) Remap(path string) (string, error) {
	normalized := normalize(path)

	rel, ok := r.trimRoot(normalized)
	if !ok {
		return "", errors.UnresolvedPath{Path: path}
	}
	return gopath.Join(r.destRoot, rel), nil
}

// trimRoot strips the music root prefix from path, reporting whether path is
// under the root at all. Matching is segment-aware: "/Music2" is not under
// "/Music".
func (r Remapper) trimRoot(path string) (string, bool) {
	if len(path) < len(r.musicRoot) {
		return "", false
	}

	prefix, rest := path[:len(r.musicRoot)], path[len(r.musicRoot):]
	if r.caseInsensitive {
		if !strings.EqualFold(prefix, r.musicRoot) {
			return "", false
		}
	} else if prefix != r.musicRoot {
		return "", false
	}

	switch {
	case rest == "":
		return "", true
	case rest[0] == '/':
		return rest[1:], true
	}
	return "", false
}

// normalize resolves "." and ".." segments, forces forward slashes, and
// gives the path a leading separator. Stored track paths conventionally omit
// the leading separator even though they're absolute, so adding it back
// makes them comparable with the configured root.
func normalize(path string) string {
	cleaned := gopath.Clean(filepath.ToSlash(path))
	if !strings.HasPrefix(cleaned, "/") {
		cleaned = "/" + cleaned
	}
	return cleaned
}
