package datamanager

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"

	"movieweb/models"
)

// csvHeader is the fixed column layout of the row store.
var csvHeader = []string{"User ID", "User Name", "Movie ID", "Movie Name", "Director", "Year", "Rating", "Note"}

// csvUser is the in-memory grouping of one user's rows.
type csvUser struct {
	name   string
	movies map[string]models.Movie
}

// CSVDataManager persists one flattened row per (user, movie) pair, the
// user's name repeated on every row. Reads reconstruct the nested per-user
// shape by grouping on the user id column; mutations re-flatten everything
// and rewrite the whole file. A user with zero movies has no row to live
// in, so such users are held by a single placeholder row with blank movie
// columns, consumed again on the first real add.
type CSVDataManager struct {
	filename string
	provider MetadataProvider
}

// NewCSVDataManager creates a row-store backend over the given file.
func NewCSVDataManager(filename string, provider MetadataProvider) *CSVDataManager {
	return &CSVDataManager{filename: filename, provider: provider}
}

func (m *CSVDataManager) readRows() (map[string]csvUser, error) {
	file, err := os.Open(m.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, m.filename)
		}
		return nil, fmt.Errorf("failed to open store file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedStore, m.filename, err)
	}
	if len(records) == 0 {
		return map[string]csvUser{}, nil
	}

	users := map[string]csvUser{}
	for _, row := range records[1:] { // skip header
		if len(row) != len(csvHeader) {
			return nil, fmt.Errorf("%w: %s: expected %d columns, got %d", ErrMalformedStore, m.filename, len(csvHeader), len(row))
		}
		userID, userName := row[0], row[1]
		user, ok := users[userID]
		if !ok {
			user = csvUser{name: userName, movies: map[string]models.Movie{}}
		}

		// A blank movie id marks the "no movies yet" placeholder row;
		// it registers the user and nothing else.
		movieID := row[2]
		if movieID != "" {
			rating := 0.0
			if row[6] != "" {
				rating, err = strconv.ParseFloat(row[6], 64)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: bad rating %q", ErrMalformedStore, m.filename, row[6])
				}
			}
			user.movies[movieID] = models.Movie{
				ID:       movieID,
				Name:     row[3],
				Director: row[4],
				Year:     row[5],
				Rating:   rating,
				Note:     row[7],
			}
		}
		users[userID] = user
	}
	return users, nil
}

// writeRows flattens the grouped shape back into rows and rewrites the
// whole file, emitting a placeholder row for every user without movies.
func (m *CSVDataManager) writeRows(users map[string]csvUser) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	userIDs := mapKeys(users)
	sortByNumericID(userIDs, func(id string) string { return id })
	for _, userID := range userIDs {
		user := users[userID]
		if len(user.movies) == 0 {
			if err := w.Write([]string{userID, user.name, "", "", "", "", "", ""}); err != nil {
				return fmt.Errorf("failed to write placeholder row: %w", err)
			}
			continue
		}

		movieIDs := mapKeys(user.movies)
		sortByNumericID(movieIDs, func(id string) string { return id })
		for _, movieID := range movieIDs {
			mv := user.movies[movieID]
			row := []string{
				userID, user.name, movieID, mv.Name, mv.Director, mv.Year,
				strconv.FormatFloat(mv.Rating, 'f', -1, 64), mv.Note,
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush rows: %w", err)
	}
	return writeFileAtomic(m.filename, buf.Bytes())
}

func (m *CSVDataManager) readOrEmpty() (map[string]csvUser, error) {
	users, err := m.readRows()
	if errors.Is(err, ErrStoreNotFound) {
		return map[string]csvUser{}, nil
	}
	return users, err
}

// GetAllUsers returns every registered user, ordered by numeric id. The
// row store carries no email or credential columns, so only names survive.
func (m *CSVDataManager) GetAllUsers() ([]models.User, error) {
	grouped, err := m.readRows()
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(grouped))
	for id, u := range grouped {
		users = append(users, models.User{ID: id, Name: u.name})
	}
	sortByNumericID(users, func(u models.User) string { return u.ID })
	return users, nil
}

// GetUserMovies returns one user's favorites, ordered by numeric movie id.
// An unknown user yields an empty slice.
func (m *CSVDataManager) GetUserMovies(userID string) ([]models.Movie, error) {
	grouped, err := m.readRows()
	if err != nil {
		return nil, err
	}

	user, ok := grouped[userID]
	if !ok {
		return []models.Movie{}, nil
	}
	movies := make([]models.Movie, 0, len(user.movies))
	for _, mv := range user.movies {
		movies = append(movies, mv)
	}
	sortByNumericID(movies, func(m models.Movie) string { return m.ID })
	return movies, nil
}

// AddUser allocates the next user id and persists the user as a
// placeholder row until the first movie is added. email and password are
// accepted for contract parity but have no column in the row layout.
func (m *CSVDataManager) AddUser(name, _, _ string) (string, error) {
	users, err := m.readOrEmpty()
	if err != nil {
		return "", err
	}

	id := NextID(mapKeys(users))
	users[id] = csvUser{name: name, movies: map[string]models.Movie{}}
	if err := m.writeRows(users); err != nil {
		return "", err
	}
	return id, nil
}

// AddMovie looks the title up with the metadata provider and inserts the
// canonical result as a new row, replacing the user's placeholder row if
// one was present. Nothing is written when the lookup fails.
func (m *CSVDataManager) AddMovie(userID, title string) error {
	users, err := m.readOrEmpty()
	if err != nil {
		return err
	}
	user, ok := users[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	info, err := m.provider.SearchByTitle(title)
	if err != nil {
		return fmt.Errorf("lookup %q: %w", title, err)
	}

	id := NextID(mapKeys(user.movies))
	user.movies[id] = models.Movie{
		ID:       id,
		Name:     info.Title,
		Director: info.Director,
		Year:     info.Year,
		Rating:   info.Rating,
	}
	users[userID] = user
	return m.writeRows(users)
}

// UpdateMovie overwrites the named movie's fields in place.
func (m *CSVDataManager) UpdateMovie(userID, movieID string, update models.MovieUpdate) error {
	users, err := m.readRows()
	if err != nil {
		return err
	}
	user, ok := users[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if _, ok := user.movies[movieID]; !ok {
		return fmt.Errorf("%w: user %s movie %s", ErrMovieNotFound, userID, movieID)
	}

	user.movies[movieID] = models.Movie{
		ID:       movieID,
		Name:     update.Name,
		Director: update.Director,
		Year:     update.Year,
		Rating:   update.Rating,
		Note:     update.Note,
	}
	users[userID] = user
	return m.writeRows(users)
}

// DeleteMovie removes one favorite row. A user whose last movie is deleted
// falls back to a placeholder row on the rewrite.
func (m *CSVDataManager) DeleteMovie(userID, movieID string) error {
	users, err := m.readRows()
	if err != nil {
		return err
	}
	user, ok := users[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if _, ok := user.movies[movieID]; !ok {
		return fmt.Errorf("%w: user %s movie %s", ErrMovieNotFound, userID, movieID)
	}

	delete(user.movies, movieID)
	users[userID] = user
	return m.writeRows(users)
}
