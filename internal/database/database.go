package database

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// New creates a new database connection pool.
func New(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
// Uniqueness lives here, not in check-then-insert code: the email and
// category-name indexes close the duplicate race under concurrent
// creates, and COLLATE NOCASE makes the category index case-insensitive.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE, -- stored lowercase
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE COLLATE NOCASE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		excerpt TEXT NOT NULL DEFAULT '',
		category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
		author_id TEXT NOT NULL REFERENCES users(id),
		featured_image TEXT NOT NULL DEFAULT 'default-post.jpg',
		published INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS comments (
		id TEXT NOT NULL PRIMARY KEY,
		post_id TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		author_id TEXT REFERENCES users(id),
		content TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_posts_category ON posts(category_id);
	CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);
	CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);
	`
	_, err := db.Exec(sqlStmt)
	return err
}
