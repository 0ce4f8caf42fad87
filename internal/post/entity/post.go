package entity

import "time"

// Visibility values a post may carry. Anything else submitted by a client is
// coerced to public before persistence.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
	VisibilityCourse  = "course"
)

// Media kinds derived from the declared content type.
const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

// Media is a binary attachment owned by its parent post. It is immutable once
// persisted. Data is JSON-encoded as base64, so the client receives the bytes
// inline next to the content type rather than as a URL.
type Media struct {
	Data        []byte `json:"data" db:"data"`
	ContentType string `json:"contentType" db:"content_type"`
	Kind        string `json:"kind" db:"kind"`
}

// Post is a published feed entry. AuthorName is a denormalized copy of the
// author's display name captured at creation time; it can go stale if the
// user later renames and is empty when the lookup failed during publish.
// Media order is the upload order and is significant for display.
type Post struct {
	ID         string    `json:"id" db:"id"`
	AuthorID   string    `json:"authorId" db:"author_id"`
	AuthorName string    `json:"authorName,omitempty" db:"author_name"`
	Title      string    `json:"title,omitempty" db:"title"`
	Body       string    `json:"body" db:"body"`
	Media      []Media   `json:"media"`
	Tags       []string  `json:"tags"`
	Visibility string    `json:"visibility" db:"visibility"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}
