// Package models defines the synced document envelope shared by the client
// cache and the server store, the domain payload types carried inside it,
// and the registry of known collections.
package models

import (
	"fmt"

	"github.com/ddanilovs/campuslink/internal/common"
)

// Collection identifies one synced entity type.
type Collection string

const (
	CollectionNotes      Collection = "notes"
	CollectionEvents     Collection = "events"
	CollectionMentors    Collection = "mentors"
	CollectionPlacements Collection = "placements"
)

// Collections lists every collection managed by the sync engine.
var Collections = []Collection{
	CollectionNotes,
	CollectionEvents,
	CollectionMentors,
	CollectionPlacements,
}

// tables maps collections to their backing table names. SQL statements are
// built only from values of this map, never from caller-supplied strings.
var tables = map[Collection]string{
	CollectionNotes:      "notes",
	CollectionEvents:     "events",
	CollectionMentors:    "mentors",
	CollectionPlacements: "placements",
}

// TableFor returns the table backing c, or ErrUnknownCollection.
func TableFor(c Collection) (string, error) {
	t, ok := tables[c]
	if !ok {
		return "", fmt.Errorf("%q: %w", c, common.ErrUnknownCollection)
	}
	return t, nil
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	_, ok := tables[c]
	return ok
}

func (c Collection) String() string {
	return string(c)
}
