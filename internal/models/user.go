package models

import "time"

// User represents a registered account in the system.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary returns the public {id, name} view embedded in posts and comments.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name}
}

// UserSummary is the resolved author reference returned on reads.
type UserSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
