package models

import "time"

// Comment lives inside exactly one post and is append-only. The author
// is nil for anonymous comments.
type Comment struct {
	ID        string       `json:"id"`
	Author    *UserSummary `json:"author"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
}
