package models

import "time"

// Category is a named grouping for posts, unique by case-insensitive name.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Summary returns the {id, name} view embedded in post reads.
func (c Category) Summary() CategorySummary {
	return CategorySummary{ID: c.ID, Name: c.Name}
}

// CategorySummary is the resolved category reference returned on reads.
type CategorySummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
