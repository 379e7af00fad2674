// Package datamanager provides the persistence layer for user favorite
// movies. One contract, three interchangeable backends: a nested JSON
// document store, a flat CSV row store, and a normalized SQLite store.
// Exactly one backend is active per process, chosen at startup and passed
// to consumers explicitly.
package datamanager

import "movieweb/models"

// DataManager is the contract every storage backend implements. All
// backends return the same shapes regardless of their on-disk layout:
// a slice of users, and a slice of movies (each carrying the personal
// note) for one user.
type DataManager interface {
	// GetAllUsers returns every registered user.
	GetAllUsers() ([]models.User, error)

	// GetUserMovies returns the favorite movies of one user. An unknown
	// user yields an empty slice, not an error.
	GetUserMovies(userID string) ([]models.Movie, error)

	// AddUser registers a user and returns the assigned identifier.
	// password is a pre-hashed credential; this layer never hashes.
	AddUser(name, email, password string) (string, error)

	// AddMovie looks the title up with the metadata provider and stores
	// the canonical result in the user's favorites. Nothing is persisted
	// when the lookup fails; the provider's not-found condition is
	// preserved in the returned error chain.
	AddMovie(userID, title string) error

	// UpdateMovie overwrites the editable fields of one favorite.
	// Returns ErrMovieNotFound if the (user, movie) pair does not resolve.
	UpdateMovie(userID, movieID string, update models.MovieUpdate) error

	// DeleteMovie removes one favorite. Deleting an absent pair returns
	// ErrMovieNotFound and changes nothing.
	DeleteMovie(userID, movieID string) error
}

// ReviewManager is implemented by backends that support movie reviews.
// Only the relational backend does; callers feature-detect with a type
// assertion.
type ReviewManager interface {
	AddReview(userID, movieID string, rating float64, review string) error
	GetReviewsForMovie(movieID string) ([]models.Review, error)
}

// MetadataProvider is the lookup-by-title contract the mutating backends
// consume. services.OMDBService satisfies it.
type MetadataProvider interface {
	SearchByTitle(title string) (*models.MovieInfo, error)
}
