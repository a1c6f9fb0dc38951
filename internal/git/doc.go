// Package git keeps a local checkout of the content repository in sync with
// its remote. The checkout is a read-only mirror: local history that diverges
// from the remote branch is discarded.
package git
