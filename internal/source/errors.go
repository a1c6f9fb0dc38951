package source

import "errors"

// Sentinel errors for content scanning. Scan wraps them in a ContentScanError
// so callers can match either the category or the specific cause.
var (
	// ErrWalkFailed indicates a directory of the content tree could not be listed.
	ErrWalkFailed = errors.New("content directory walk failed")

	// ErrFileReadFailed indicates a page file could not be read.
	ErrFileReadFailed = errors.New("content file read failed")

	// ErrInvalidFrontmatter indicates a page's YAML frontmatter is malformed.
	ErrInvalidFrontmatter = errors.New("invalid page frontmatter")

	// ErrInvalidMeta indicates a meta.json or meta.yaml file is malformed.
	ErrInvalidMeta = errors.New("invalid meta file")

	// ErrUnknownMetaEntry indicates a meta file lists a page or folder that does not exist.
	ErrUnknownMetaEntry = errors.New("meta file references unknown entry")

	// ErrURLCollision indicates two files map to the same page URL.
	ErrURLCollision = errors.New("page url collision")
)
