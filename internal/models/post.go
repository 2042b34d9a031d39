package models

import "time"

// DefaultFeaturedImage is the sentinel used when no image was uploaded.
const DefaultFeaturedImage = "default-post.jpg"

// Post is a user-authored article. The category reference is nil when
// the referenced category has been deleted.
type Post struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Slug          string           `json:"slug"`
	Content       string           `json:"content"`
	Excerpt       string           `json:"excerpt,omitempty"`
	Author        UserSummary      `json:"author"`
	Category      *CategorySummary `json:"category"`
	FeaturedImage string           `json:"featuredImage"`
	Published     bool             `json:"published"`
	Comments      []Comment        `json:"comments"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

// PostSummary is the list-view projection: no content, no comments.
type PostSummary struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	Slug          string           `json:"slug"`
	Excerpt       string           `json:"excerpt,omitempty"`
	Author        UserSummary      `json:"author"`
	Category      *CategorySummary `json:"category"`
	FeaturedImage string           `json:"featuredImage"`
	Published     bool             `json:"published"`
	CreatedAt     time.Time        `json:"createdAt"`
}
