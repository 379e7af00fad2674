package datamanager

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"movieweb/models"
)

// jsonMovie is the on-disk shape of one favorite in the document store.
type jsonMovie struct {
	Name     string  `json:"name"`
	Director string  `json:"director"`
	Year     string  `json:"year"`
	Rating   float64 `json:"rating"`
	Note     string  `json:"note"`
}

// jsonUser is the on-disk shape of one user: account fields plus the
// nested movie mapping keyed by movie id.
type jsonUser struct {
	Name     string               `json:"name"`
	Email    string               `json:"email,omitempty"`
	Password string               `json:"password,omitempty"`
	Movies   map[string]jsonMovie `json:"movies"`
}

// jsonDocument maps user id to user. The whole store is one such document.
type jsonDocument map[string]jsonUser

// JSONDataManager persists all users and their nested movie collections in
// a single JSON document. Every read parses the whole file, every mutation
// rewrites it. Last writer wins; there is no locking.
type JSONDataManager struct {
	filename string
	provider MetadataProvider
}

// NewJSONDataManager creates a document-store backend over the given file.
func NewJSONDataManager(filename string, provider MetadataProvider) *JSONDataManager {
	return &JSONDataManager{filename: filename, provider: provider}
}

func (m *JSONDataManager) readDocument() (jsonDocument, error) {
	data, err := os.ReadFile(m.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrStoreNotFound, m.filename)
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}

	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedStore, m.filename, err)
	}
	return doc, nil
}

// writeDocument serializes the whole document and replaces the store file.
func (m *JSONDataManager) writeDocument(doc jsonDocument) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize store: %w", err)
	}
	return writeFileAtomic(m.filename, data)
}

// readOrEmpty is used by mutations: a store that does not exist yet is an
// empty document, not an error.
func (m *JSONDataManager) readOrEmpty() (jsonDocument, error) {
	doc, err := m.readDocument()
	if errors.Is(err, ErrStoreNotFound) {
		return jsonDocument{}, nil
	}
	return doc, err
}

// GetAllUsers returns every registered user, ordered by numeric id.
func (m *JSONDataManager) GetAllUsers() ([]models.User, error) {
	doc, err := m.readDocument()
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(doc))
	for id, u := range doc {
		users = append(users, models.User{
			ID:       id,
			Name:     u.Name,
			Email:    u.Email,
			Password: u.Password,
		})
	}
	sortByNumericID(users, func(u models.User) string { return u.ID })
	return users, nil
}

// GetUserMovies returns one user's favorites, ordered by numeric movie id.
// An unknown user yields an empty slice.
func (m *JSONDataManager) GetUserMovies(userID string) ([]models.Movie, error) {
	doc, err := m.readDocument()
	if err != nil {
		return nil, err
	}

	user, ok := doc[userID]
	if !ok {
		return []models.Movie{}, nil
	}
	return movieMapToSlice(user.Movies), nil
}

// AddUser allocates the next user id over the existing keys and persists
// the new user with an empty movie collection.
func (m *JSONDataManager) AddUser(name, email, password string) (string, error) {
	doc, err := m.readOrEmpty()
	if err != nil {
		return "", err
	}

	id := NextID(mapKeys(doc))
	doc[id] = jsonUser{
		Name:     name,
		Email:    email,
		Password: password,
		Movies:   map[string]jsonMovie{},
	}
	if err := m.writeDocument(doc); err != nil {
		return "", err
	}
	return id, nil
}

// AddMovie looks the title up with the metadata provider and inserts the
// canonical record into the user's movie mapping. Nothing is written when
// the lookup fails.
func (m *JSONDataManager) AddMovie(userID, title string) error {
	doc, err := m.readOrEmpty()
	if err != nil {
		return err
	}
	user, ok := doc[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}

	info, err := m.provider.SearchByTitle(title)
	if err != nil {
		return fmt.Errorf("lookup %q: %w", title, err)
	}

	if user.Movies == nil {
		user.Movies = map[string]jsonMovie{}
	}
	id := NextID(mapKeys(user.Movies))
	user.Movies[id] = jsonMovie{
		Name:     info.Title,
		Director: info.Director,
		Year:     info.Year,
		Rating:   info.Rating,
	}
	doc[userID] = user
	return m.writeDocument(doc)
}

// UpdateMovie overwrites the named movie's fields in place.
func (m *JSONDataManager) UpdateMovie(userID, movieID string, update models.MovieUpdate) error {
	doc, err := m.readDocument()
	if err != nil {
		return err
	}
	user, ok := doc[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if _, ok := user.Movies[movieID]; !ok {
		return fmt.Errorf("%w: user %s movie %s", ErrMovieNotFound, userID, movieID)
	}

	user.Movies[movieID] = jsonMovie{
		Name:     update.Name,
		Director: update.Director,
		Year:     update.Year,
		Rating:   update.Rating,
		Note:     update.Note,
	}
	doc[userID] = user
	return m.writeDocument(doc)
}

// DeleteMovie removes one favorite from the user's mapping.
func (m *JSONDataManager) DeleteMovie(userID, movieID string) error {
	doc, err := m.readDocument()
	if err != nil {
		return err
	}
	user, ok := doc[userID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if _, ok := user.Movies[movieID]; !ok {
		return fmt.Errorf("%w: user %s movie %s", ErrMovieNotFound, userID, movieID)
	}

	delete(user.Movies, movieID)
	doc[userID] = user
	return m.writeDocument(doc)
}

// mapKeys collects the keys of a string-keyed map for the allocator.
func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func movieMapToSlice(movies map[string]jsonMovie) []models.Movie {
	out := make([]models.Movie, 0, len(movies))
	for id, mv := range movies {
		out = append(out, models.Movie{
			ID:       id,
			Name:     mv.Name,
			Director: mv.Director,
			Year:     mv.Year,
			Rating:   mv.Rating,
			Note:     mv.Note,
		})
	}
	sortByNumericID(out, func(m models.Movie) string { return m.ID })
	return out
}

// sortByNumericID orders entities by their text identifier compared as an
// integer, so "10" comes after "9". Non-numeric ids sort last.
func sortByNumericID[T any](items []T, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		a, errA := strconv.Atoi(id(items[i]))
		b, errB := strconv.Atoi(id(items[j]))
		if errA != nil || errB != nil {
			if (errA == nil) != (errB == nil) {
				return errA == nil
			}
			return id(items[i]) < id(items[j])
		}
		return a < b
	})
}
