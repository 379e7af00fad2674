package datamanager

import (
	"database/sql"
	"fmt"
	"log"
	"strconv"

	"movieweb/database"
	"movieweb/models"
)

// SQLDataManager persists users, a deduplicated movie catalog, the
// user-movie association rows, and reviews in SQLite. The catalog is
// shared: adding a title that already exists links the existing catalog
// row instead of fetching and inserting a duplicate. This backend is the
// only one implementing ReviewManager.
type SQLDataManager struct {
	db       *database.DB
	provider MetadataProvider
}

// NewSQLDataManager creates a relational backend over an initialized database.
func NewSQLDataManager(db *database.DB, provider MetadataProvider) *SQLDataManager {
	return &SQLDataManager{db: db, provider: provider}
}

// GetAllUsers retrieves all users ordered by id.
func (m *SQLDataManager) GetAllUsers() ([]models.User, error) {
	rows, err := m.db.Query(`SELECT id, name, email, password FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	users := []models.User{}
	for rows.Next() {
		var id int64
		var user models.User
		if err := rows.Scan(&id, &user.Name, &user.Email, &user.Password); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.ID = strconv.FormatInt(id, 10)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return users, nil
}

// GetUserMovies retrieves one user's favorites by joining the association
// rows to the catalog. The returned movie ids are catalog ids, so two
// users sharing a title see the same id. An unknown user yields an empty
// slice.
func (m *SQLDataManager) GetUserMovies(userID string) ([]models.Movie, error) {
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return []models.Movie{}, nil
	}

	query := `
		SELECT um.movie_id, um.title, um.director, um.year, um.rating, um.note
		FROM user_movies um
		INNER JOIN movies m ON um.movie_id = m.id
		WHERE um.user_id = ?
		ORDER BY um.movie_id
	`
	rows, err := m.db.Query(query, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query user movies: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	movies := []models.Movie{}
	for rows.Next() {
		var movieID int64
		var movie models.Movie
		var director, year, note sql.NullString
		var rating sql.NullFloat64
		if err := rows.Scan(&movieID, &movie.Name, &director, &year, &rating, &note); err != nil {
			return nil, fmt.Errorf("failed to scan user movie: %w", err)
		}
		movie.ID = strconv.FormatInt(movieID, 10)
		movie.Director = director.String
		movie.Year = year.String
		movie.Rating = rating.Float64
		movie.Note = note.String
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return movies, nil
}

// AddUser inserts a new user and returns the database-assigned id.
// password is a pre-hashed credential.
func (m *SQLDataManager) AddUser(name, email, password string) (string, error) {
	result, err := m.db.Exec(`INSERT INTO users (name, email, password) VALUES (?, ?, ?)`,
		name, email, password)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("failed to get last insert id: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

// AddMovie links a movie to the user's favorites. An exact title match in
// the catalog is reused as-is, with no second provider lookup; otherwise
// the provider's canonical record is inserted as a new catalog row first.
// The catalog insert and the association insert are separate statements:
// a crash in between leaves an orphan catalog row, which is harmless and
// reused by a later add of the same title.
func (m *SQLDataManager) AddMovie(userID, title string) error {
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	var exists int
	if err := m.db.QueryRow(`SELECT COUNT(*) FROM users WHERE id = ?`, uid).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	var movieID int64
	var movieTitle string
	var director, year sql.NullString
	var rating sql.NullFloat64
	err = m.db.QueryRow(`SELECT id, title, director, year, rating FROM movies WHERE title = ?`, title).
		Scan(&movieID, &movieTitle, &director, &year, &rating)
	switch {
	case err == sql.ErrNoRows:
		info, err := m.provider.SearchByTitle(title)
		if err != nil {
			return fmt.Errorf("lookup %q: %w", title, err)
		}
		result, err := m.db.Exec(`
			INSERT INTO movies (title, year, rating, genre, director, writer, actors,
								plot, language, country, poster, media_type)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			info.Title, info.Year, info.Rating, info.Genre, info.Director, info.Writer,
			info.Actors, info.Plot, info.Language, info.Country, info.Poster, info.MediaType)
		if err != nil {
			return fmt.Errorf("failed to create catalog movie: %w", err)
		}
		movieID, err = result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		movieTitle = info.Title
		director = sql.NullString{String: info.Director, Valid: true}
		year = sql.NullString{String: info.Year, Valid: true}
		rating = sql.NullFloat64{Float64: info.Rating, Valid: true}
	case err != nil:
		return fmt.Errorf("failed to query catalog: %w", err)
	}

	_, err = m.db.Exec(`
		INSERT INTO user_movies (user_id, movie_id, title, director, year, rating, note)
		VALUES (?, ?, ?, ?, ?, ?, '')`,
		uid, movieID, movieTitle, director.String, year.String, rating.Float64)
	if err != nil {
		return fmt.Errorf("failed to create favorite: %w", err)
	}
	return nil
}

// UpdateMovie overwrites the favorite located by (user, catalog movie id).
// Only the association row changes; the catalog row is never touched.
func (m *SQLDataManager) UpdateMovie(userID, movieID string, update models.MovieUpdate) error {
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: user %s movie %s", ErrMovieNotFound, userID, movieID)
	}
	mid, err := strconv.ParseInt(movieID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: user %s movie %s", ErrMovieNotFound, userID, movieID)
	}

	result, err := m.db.Exec(`
		UPDATE user_movies
		SET title = ?, director = ?, year = ?, rating = ?, note = ?
		WHERE user_id = ? AND movie_id = ?`,
		update.Name, update.Director, update.Year, update.Rating, update.Note, uid, mid)
	if err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %s movie %s", ErrMovieNotFound, userID, movieID)
	}
	return nil
}

// DeleteMovie removes the favorite row only. The catalog movie stays; it
// may still be referenced by other users.
func (m *SQLDataManager) DeleteMovie(userID, movieID string) error {
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: user %s movie %s", ErrMovieNotFound, userID, movieID)
	}
	mid, err := strconv.ParseInt(movieID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: user %s movie %s", ErrMovieNotFound, userID, movieID)
	}

	result, err := m.db.Exec(`DELETE FROM user_movies WHERE user_id = ? AND movie_id = ?`, uid, mid)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: user %s movie %s", ErrMovieNotFound, userID, movieID)
	}
	return nil
}

// AddReview stores a rating and free-text review for a catalog movie.
// One review per (user, movie) is the convention, not a constraint.
func (m *SQLDataManager) AddReview(userID, movieID string, rating float64, review string) error {
	uid, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	mid, err := strconv.ParseInt(movieID, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMovieNotFound, movieID)
	}

	_, err = m.db.Exec(`INSERT INTO reviews (user_id, movie_id, rating, review) VALUES (?, ?, ?, ?)`,
		uid, mid, rating, review)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// GetReviewsForMovie retrieves every review of one catalog movie across
// all users.
func (m *SQLDataManager) GetReviewsForMovie(movieID string) ([]models.Review, error) {
	mid, err := strconv.ParseInt(movieID, 10, 64)
	if err != nil {
		return []models.Review{}, nil
	}

	rows, err := m.db.Query(`SELECT id, user_id, movie_id, rating, review FROM reviews WHERE movie_id = ? ORDER BY id`, mid)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("Failed to close rows: %v", err)
		}
	}()

	reviews := []models.Review{}
	for rows.Next() {
		var id, userID, mvID int64
		var review models.Review
		if err := rows.Scan(&id, &userID, &mvID, &review.Rating, &review.Review); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		review.ID = strconv.FormatInt(id, 10)
		review.UserID = strconv.FormatInt(userID, 10)
		review.MovieID = strconv.FormatInt(mvID, 10)
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over rows: %w", err)
	}
	return reviews, nil
}
