// Package lifecycle is the request state machine every feature slice
// reuses: per-resource status, pagination cursor, and user-facing
// errors, mutated only through the pure reducers in this package.
package lifecycle

import (
	"github.com/pkg/errors"

	"github.com/tastemate/tastemate-go/faults"
)

// Status is the per-resource request state.
type Status string

const (
	StatusIdle        Status = "idle"
	StatusLoading     Status = "loading"
	StatusSucceeded   Status = "succeeded"
	StatusFailed      Status = "failed"
	StatusExpiredAuth Status = "expiredAuth"
)

// Terminal reports whether a new dispatch may restart the cycle from
// this status.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusExpiredAuth
}

// Cursor tracks a list resource's pagination position. The zero Cursor
// means the first page was never fetched; a Known cursor with an empty
// URL means the server returned a null next link and the list is
// exhausted.
type Cursor struct {
	URL   string
	Known bool
}

func (c Cursor) Exhausted() bool {
	return c.Known && c.URL == ""
}

// NextCursor converts a server next link (null when exhausted) into a
// Cursor.
func NextCursor(next *string) Cursor {
	if next == nil {
		return Cursor{Known: true}
	}
	return Cursor{URL: *next, Known: true}
}

// Meta is the request metadata for one resource key.
type Meta struct {
	Status Status
	Next   Cursor
	Errors []string
}

// MetaMap holds metadata per resource key. The empty string keys a
// feature area's unscoped operation (for example its main list).
type MetaMap map[string]Meta

// Get returns the metadata for key, defaulting to idle when the key was
// never dispatched.
func (m MetaMap) Get(key string) Meta {
	if meta, ok := m[key]; ok {
		return meta
	}
	return Meta{Status: StatusIdle}
}

func (m MetaMap) with(key string, meta Meta) MetaMap {
	out := make(MetaMap, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[key] = meta
	return out
}

// Pending marks a dispatch: status loading, errors cleared, cursor kept.
func Pending(m MetaMap, key string) MetaMap {
	meta := m.Get(key)
	meta.Status = StatusLoading
	meta.Errors = nil
	return m.with(key, meta)
}

// Fulfilled marks success without touching the cursor (single-entity
// fetches and mutations).
func Fulfilled(m MetaMap, key string) MetaMap {
	meta := m.Get(key)
	meta.Status = StatusSucceeded
	meta.Errors = nil
	return m.with(key, meta)
}

// FulfilledPage marks success for a list fetch and advances the cursor.
func FulfilledPage(m MetaMap, key string, next Cursor) MetaMap {
	meta := m.Get(key)
	meta.Status = StatusSucceeded
	meta.Errors = nil
	meta.Next = next
	return m.with(key, meta)
}

// Rejected applies a classified failure. Auth-expired becomes the
// expiredAuth status with data and errors untouched; field and form
// faults become a failed status carrying a single user-facing message.
// Unknown faults are not absorbed: the map is returned unchanged along
// with an error for the caller to re-raise.
func Rejected(m MetaMap, key string, f faults.Fault) (MetaMap, error) {
	meta := m.Get(key)
	switch f.Kind {
	case faults.KindAuthExpired:
		meta.Status = StatusExpiredAuth
	case faults.KindField, faults.KindForm:
		meta.Status = StatusFailed
		meta.Errors = []string{f.Message}
	default:
		return m, errors.New("[lifecycle.Rejected] unclassifiable failure")
	}
	return m.with(key, meta), nil
}

// AcknowledgeExpiry flips every expiredAuth entry back to idle without
// touching cached data or cursors, so a post-sign-in retry starts clean.
func AcknowledgeExpiry(m MetaMap) MetaMap {
	out := make(MetaMap, len(m))
	for k, meta := range m {
		if meta.Status == StatusExpiredAuth {
			meta.Status = StatusIdle
		}
		out[k] = meta
	}
	return out
}
