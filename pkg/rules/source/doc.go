// Package source loads rule catalogs from files, from the built-in document, or
// from a Git repository, and watches schema files for changes.
//
// Every Load returns a freshly built, immutable catalog. Hosts that hot-reload
// rules build a new engine from the new catalog and swap it in; catalogs and
// engines already in use are never modified.
package source
