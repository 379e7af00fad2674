package datamanager

import "errors"

var (
	// ErrUserNotFound indicates that the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrMovieNotFound indicates that the referenced (user, movie) pair
	// does not resolve to a stored favorite.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrStoreNotFound indicates that the backing file does not exist yet.
	ErrStoreNotFound = errors.New("store file not found")

	// ErrMalformedStore indicates that the backing file exists but could
	// not be parsed. Distinct from ErrStoreNotFound.
	ErrMalformedStore = errors.New("store file malformed")
)
