package source

import (
	"io/fs"
	"strings"

	"github.com/inful/mdfp"
)

// contentDigest fingerprints every file below the root whose path has no
// dot-prefixed segment. Partials, snippets and code files reached through
// includes are covered even though they are not pages.
func contentDigest(fsys fs.FS) (string, error) {
	var parts []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return scanError(ErrWalkFailed, p, err)
		}
		if p != "." && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return scanError(ErrFileReadFailed, p, err)
		}
		parts = append(parts, p+" "+mdfp.CalculateFingerprintFromParts(p, string(data)))
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(parts, "\n"), nil
}
