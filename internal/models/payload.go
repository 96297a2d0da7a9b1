package models

import "encoding/json"

// Note is a shared study note. AttachmentURL points at an externally hosted
// file; upload mechanics are outside the sync engine.
type Note struct {
	Title         string `json:"title"`
	Body          string `json:"body"`
	Subject       string `json:"subject"`
	AttachmentURL string `json:"attachment_url,omitempty"`
	AuthorName    string `json:"author_name"`
	Likes         int    `json:"likes"`
}

// Event is a campus event.
type Event struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Venue       string `json:"venue"`
	OrganizerID string `json:"organizer_id"`
	StartsAt    int64  `json:"starts_at"`
	EndsAt      int64  `json:"ends_at"`
}

// MentorProfile describes a mentor available for sign-up.
type MentorProfile struct {
	Name      string   `json:"name"`
	Expertise []string `json:"expertise"`
	Contact   string   `json:"contact"`
	Capacity  int      `json:"capacity"`
}

// Placement is a placement/internship announcement.
type Placement struct {
	Company     string `json:"company"`
	Role        string `json:"role"`
	Description string `json:"description"`
	ApplyBy     int64  `json:"apply_by"`
	Link        string `json:"link,omitempty"`
}

// EncodePayload marshals a domain value into a Document payload.
func EncodePayload(v any) (json.RawMessage, error) {
	return json.Marshal(v)
}

// DecodePayload unmarshals a Document payload into the given domain value.
func DecodePayload(p json.RawMessage, v any) error {
	return json.Unmarshal(p, v)
}

// PayloadTitle extracts the display title from a payload without knowing the
// concrete domain type. Collections without a title field yield "".
func PayloadTitle(p json.RawMessage) string {
	var t struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(p, &t); err != nil {
		return ""
	}
	return t.Title
}
