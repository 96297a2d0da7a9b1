package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Document is the synced envelope persisted locally and on the server.
// Domain fields live in Payload; the remaining fields are sync metadata.
type Document struct {
	// ID is a globally unique identifier, stable across local and remote
	// representations.
	ID string `json:"id"`

	// Collection names the entity type this document belongs to.
	Collection Collection `json:"collection"`

	// Owner is the user id of the author, attributed on push.
	Owner string `json:"owner"`

	// Payload carries the domain fields (Note, Event, ...) as JSON.
	Payload json.RawMessage `json:"payload"`

	// ModifiedAt is the last local mutation time in epoch milliseconds,
	// stamped by the writer.
	ModifiedAt int64 `json:"modified_at"`

	// SyncedAt is the time of the last confirmed remote write or pull in
	// epoch milliseconds; nil until the first successful sync.
	SyncedAt *int64 `json:"synced_at,omitempty"`

	// Dirty is true iff local state has mutations not yet confirmed remotely.
	Dirty bool `json:"dirty"`

	// Version is the monotonic, server-assigned version used for ordering.
	Version int64 `json:"version"`

	// Deleted marks the document as a tombstone (kept for conflict-free sync).
	Deleted bool `json:"deleted"`
}

// NewDocument builds a dirty, never-synced document with a fresh id,
// stamped with the current time.
func NewDocument(c Collection, owner string, payload json.RawMessage) Document {
	return Document{
		ID:         uuid.NewString(),
		Collection: c,
		Owner:      owner,
		Payload:    payload,
		ModifiedAt: time.Now().UnixMilli(),
		Dirty:      true,
	}
}

// Touch records a local mutation: bumps ModifiedAt and marks the document
// dirty. Only UI/business code calls this; the orchestrator never does.
func (d *Document) Touch(now time.Time) {
	d.ModifiedAt = now.UnixMilli()
	d.Dirty = true
}

// MarkSynced records a confirmed remote write or pull.
func (d *Document) MarkSynced(now time.Time) {
	ts := now.UnixMilli()
	d.SyncedAt = &ts
	d.Dirty = false
}

// Tombstone marks the document deleted and dirty so the deletion is
// propagated on the next push rather than silently dropped.
func (d *Document) Tombstone(now time.Time) {
	d.Deleted = true
	d.Touch(now)
}
