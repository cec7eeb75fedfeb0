// Package cookies provides persistence for client cookies.
//
// It defines a storage-agnostic Repository interface and a SQLite-backed
// implementation. A cookie is identified by its name; Put replaces an existing
// row atomically via an upsert.
package cookies
