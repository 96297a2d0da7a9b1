package documents

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ddanilovs/campuslink/internal/models"
)

// ErrMalformedCursor reports a cursor string a client tampered with or
// truncated.
var ErrMalformedCursor = errors.New("malformed cursor")

// Cursor is the decoded position of the last item in a page: the order key
// plus the id as tiebreaker. Its wire form is opaque to clients, which must
// pass it back unmodified.
type Cursor struct {
	ModifiedAt int64  `json:"m"`
	ID         string `json:"id"`
}

// EncodeCursor renders the position of d as an opaque cursor string.
func EncodeCursor(d models.Document) string {
	data, _ := json.Marshal(Cursor{ModifiedAt: d.ModifiedAt, ID: d.ID})
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor parses an opaque cursor string produced by EncodeCursor.
func DecodeCursor(s string) (*Cursor, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedCursor, err)
	}
	return &c, nil
}
