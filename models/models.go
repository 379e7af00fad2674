// Package models defines the entities shared by the persistence backends
// and the HTTP boundary.
package models

// User is an account that owns a collection of favorite movies.
// Password holds the pre-hashed credential; hashing happens at the
// registration boundary, never inside the persistence layer.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Password string `json:"-"`
}

// Movie is one entry in a user's favorites as every backend returns it:
// the movie fields plus the personal note carried by the association.
// In the relational backend ID refers to the shared catalog movie; in the
// file backends it is scoped to the owning user.
type Movie struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Director string  `json:"director"`
	Year     string  `json:"year"`
	Rating   float64 `json:"rating"`
	Note     string  `json:"note,omitempty"`
}

// MovieUpdate carries the editable fields of a favorite. All fields are
// overwritten; callers pass the full desired state.
type MovieUpdate struct {
	Name     string  `json:"name"`
	Director string  `json:"director"`
	Year     string  `json:"year"`
	Rating   float64 `json:"rating"`
	Note     string  `json:"note"`
}

// MovieInfo is the canonical record returned by the metadata provider.
// Title is the provider's canonical title, which may differ from the
// query string used to look it up.
type MovieInfo struct {
	Title     string  `json:"title"`
	Year      string  `json:"year"`
	Rating    float64 `json:"rating"`
	Genre     string  `json:"genre,omitempty"`
	Director  string  `json:"director,omitempty"`
	Writer    string  `json:"writer,omitempty"`
	Actors    string  `json:"actors,omitempty"`
	Plot      string  `json:"plot,omitempty"`
	Language  string  `json:"language,omitempty"`
	Country   string  `json:"country,omitempty"`
	Poster    string  `json:"poster,omitempty"`
	MediaType string  `json:"type,omitempty"`
}

// Review is a rating plus free-text review a user left on a catalog movie.
// Relational backend only.
type Review struct {
	ID      string  `json:"id"`
	UserID  string  `json:"user_id"`
	MovieID string  `json:"movie_id"`
	Rating  float64 `json:"rating"`
	Review  string  `json:"review"`
}
