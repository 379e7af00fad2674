// Package database provides database connectivity and schema management.
package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3" // Import sqlite3 driver
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
func NewDB(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{db}, nil
}

// InitSchema initializes the database schema: users, the shared movie
// catalog, the per-user association rows, and reviews.
func (db *DB) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		password TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS movies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		year TEXT,
		rating REAL,
		genre TEXT,
		director TEXT,
		writer TEXT,
		actors TEXT,
		plot TEXT,
		language TEXT,
		country TEXT,
		poster TEXT,
		media_type TEXT
	);

	CREATE TABLE IF NOT EXISTS user_movies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		movie_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		director TEXT,
		year TEXT,
		rating REAL,
		note TEXT NOT NULL DEFAULT '',
		FOREIGN KEY (user_id) REFERENCES users (id),
		FOREIGN KEY (movie_id) REFERENCES movies (id)
	);

	CREATE TABLE IF NOT EXISTS reviews (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		movie_id INTEGER NOT NULL,
		rating REAL NOT NULL,
		review TEXT NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users (id),
		FOREIGN KEY (movie_id) REFERENCES movies (id)
	);

	CREATE INDEX IF NOT EXISTS idx_movies_title ON movies(title);
	CREATE INDEX IF NOT EXISTS idx_user_movies_user_id ON user_movies(user_id);
	CREATE INDEX IF NOT EXISTS idx_user_movies_movie_id ON user_movies(movie_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_movie_id ON reviews(movie_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	log.Println("Database schema initialized")
	return nil
}
