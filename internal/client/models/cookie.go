// Package models defines client-side data models used by the trackmeta CLI.
package models

import "time"

// Cookie is a single persisted cookie of the client's browser-like store.
type Cookie struct {
	// Name is the cookie name, unique within the store.
	Name string

	// Value is the percent-encoded value exactly as it appears on the wire.
	Value string

	Path string

	// Expires is the absolute expiry, second precision, UTC.
	Expires time.Time

	Secure   bool
	SameSite string

	// Raw is the full Set-Cookie serialization that produced this row.
	Raw string

	UpdatedAt time.Time
}

// Expired reports whether the cookie has lapsed at now.
func (c *Cookie) Expired(now time.Time) bool {
	return !now.Before(c.Expires)
}
